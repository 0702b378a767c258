package cache

import "fmt"

func GroupKey(id int64) string {
	return fmt.Sprintf("group:%d", id)
}

func GroupShareKey(groupID int64) string {
	return fmt.Sprintf("group:share:%d", groupID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
