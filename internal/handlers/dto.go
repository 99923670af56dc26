package handlers

import (
	"bytes"
	"encoding/json"
	"html/template"
	"strings"
	"time"

	"voicesocial/internal/models"
	"voicesocial/internal/services"
	"voicesocial/internal/utils"
)

// fidValue 接受 JSON 字符串或数字形式的 FID
type fidValue string

func (f *fidValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = fidValue(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = fidValue(n.String())
	return nil
}

func (f fidValue) present() bool {
	return f != ""
}

func (f fidValue) parse() (models.FID, error) {
	return models.ParseFID(string(f))
}

type userDTO struct {
	FID         string `json:"fid"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	PfpURL      string `json:"pfpUrl"`
	Bio         string `json:"bio,omitempty"`
}

func newUserDTO(u *models.User) *userDTO {
	if u == nil || u.FID == 0 {
		return nil
	}
	return &userDTO{
		FID:         u.FID.String(),
		Username:    u.Username,
		DisplayName: u.DisplayName,
		PfpURL:      u.PfpURL,
		Bio:         u.Bio,
	}
}

// 匿名语音对外隐藏作者
var anonymousUser = userDTO{Username: "anonymous", DisplayName: "Anonymous"}

type likeDTO struct {
	UserFID string `json:"userFid"`
}

type voiceDTO struct {
	ID              string        `json:"id"`
	UserFID         string        `json:"userFid"`
	User            *userDTO      `json:"user,omitempty"`
	AudioURL        string        `json:"audioUrl"`
	AudioMimeType   string        `json:"audioMimeType"`
	AudioSize       int64         `json:"audioSize"`
	Duration        float64       `json:"duration"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	DescriptionHTML template.HTML `json:"descriptionHtml"`
	IsAnonymous     bool          `json:"isAnonymous"`
	CreatedAt       time.Time     `json:"createdAt"`
	Likes           []likeDTO     `json:"likes"`
	LikeCount       int64         `json:"likeCount"`
	CommentCount    int64         `json:"commentCount"`
	ViewCount       int64         `json:"viewCount"`
}

func newVoiceDTO(v *models.Voice, sum *services.VoiceSummary) voiceDTO {
	dto := voiceDTO{
		ID:              v.ID,
		UserFID:         v.UserFID.String(),
		User:            newUserDTO(&v.User),
		AudioURL:        v.AudioURL,
		AudioMimeType:   v.AudioMimeType,
		AudioSize:       v.AudioSize,
		Duration:        v.Duration,
		Title:           v.Title,
		Description:     v.Description,
		DescriptionHTML: utils.RenderMarkdown(v.Description),
		IsAnonymous:     v.IsAnonymous,
		CreatedAt:       v.CreatedAt,
		Likes:           []likeDTO{},
	}
	if v.IsAnonymous {
		anon := anonymousUser
		dto.User = &anon
		dto.UserFID = ""
	}
	if sum != nil {
		dto.LikeCount = sum.LikeCount
		dto.CommentCount = sum.CommentCount
		dto.ViewCount = sum.ViewCount
		for _, fid := range sum.LikerFIDs {
			dto.Likes = append(dto.Likes, likeDTO{UserFID: fid.String()})
		}
	}
	return dto
}

type commentDTO struct {
	ID        string    `json:"id"`
	VoiceID   string    `json:"voiceId"`
	UserFID   string    `json:"userFid"`
	User      *userDTO  `json:"user,omitempty"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	AudioURL  string    `json:"audioUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func newCommentDTO(c *models.VoiceComment) commentDTO {
	return commentDTO{
		ID:        c.ID,
		VoiceID:   c.VoiceID,
		UserFID:   c.UserFID.String(),
		User:      newUserDTO(&c.User),
		Type:      string(c.Kind),
		Content:   c.Content,
		AudioURL:  c.AudioURL,
		CreatedAt: c.CreatedAt,
	}
}

type notificationDTO struct {
	ID           uint      `json:"id"`
	RecipientFID string    `json:"recipientFid"`
	SenderFID    *string   `json:"senderFid"`
	Sender       *userDTO  `json:"sender"`
	Type         string    `json:"type"`
	VoiceID      *string   `json:"voiceId"`
	CommentID    *string   `json:"commentId"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"createdAt"`
}

func newNotificationDTO(n *models.Notification) notificationDTO {
	dto := notificationDTO{
		ID:           n.ID,
		RecipientFID: n.RecipientFID.String(),
		Sender:       newUserDTO(n.Sender),
		Type:         string(n.Type),
		VoiceID:      n.VoiceID,
		CommentID:    n.CommentID,
		Read:         n.Read,
		CreatedAt:    n.CreatedAt,
	}
	if n.SenderFID != nil {
		s := n.SenderFID.String()
		dto.SenderFID = &s
	}
	return dto
}

type pointsDTO struct {
	TotalPoints   int `json:"totalPoints"`
	ViewPoints    int `json:"viewPoints"`
	LikePoints    int `json:"likePoints"`
	CommentPoints int `json:"commentPoints"`
}

func newPointsDTO(p models.UserPoints) pointsDTO {
	return pointsDTO{
		TotalPoints:   p.TotalPoints,
		ViewPoints:    p.ViewPoints,
		LikePoints:    p.LikePoints,
		CommentPoints: p.CommentPoints,
	}
}

type pointLogDTO struct {
	Amount    int       `json:"amount"`
	Action    string    `json:"action"`
	VoiceID   string    `json:"voiceId,omitempty"`
	ActorFID  *string   `json:"actorFid,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func newPointLogDTO(l *models.PointLog) pointLogDTO {
	dto := pointLogDTO{
		Amount:    l.Amount,
		Action:    l.Action,
		VoiceID:   l.VoiceID,
		CreatedAt: l.CreatedAt,
	}
	if l.ActorFID != nil {
		s := l.ActorFID.String()
		dto.ActorFID = &s
	}
	return dto
}

type leaderboardEntryDTO struct {
	Rank          int     `json:"rank"`
	User          userDTO `json:"user"`
	TotalPoints   int     `json:"totalPoints"`
	ViewPoints    int     `json:"viewPoints"`
	LikePoints    int     `json:"likePoints"`
	CommentPoints int     `json:"commentPoints"`
	VoicesCount   int64   `json:"voicesCount"`
	Level         string  `json:"level"`
}

func newLeaderboardEntryDTO(e *services.LeaderboardEntry) leaderboardEntryDTO {
	user := newUserDTO(&e.User)
	if user == nil {
		user = &userDTO{}
	}
	return leaderboardEntryDTO{
		Rank:          e.Rank,
		User:          *user,
		TotalPoints:   e.Points.TotalPoints,
		ViewPoints:    e.Points.ViewPoints,
		LikePoints:    e.Points.LikePoints,
		CommentPoints: e.Points.CommentPoints,
		VoicesCount:   e.VoiceCount,
		Level:         e.Level,
	}
}
