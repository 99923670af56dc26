package utils

// Level 根据总积分返回用户等级名称和图标
func Level(points int) (name string, icon string) {
	switch {
	case points >= 1000:
		return "Legend", "🎙️"
	case points >= 201:
		return "Headliner", "🎤"
	case points >= 51:
		return "Performer", "🎶"
	case points >= 11:
		return "Hummer", "🎵"
	default:
		return "Listener", "🎧"
	}
}
