package utils

func LeaderboardKey() string {
	return "trench_radar:leaderboard"
}
