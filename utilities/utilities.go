package utilities

import (
	"strings"
	"time"
)

func DBMultiValuePlaceholders(n int) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(strings.TrimSuffix(strings.Repeat("?,", n), ","))
	b.WriteString(")")
	return b.String()
}

func TimeNow() time.Time {
	return time.Now().UTC()
}

func UnixTime() int64 {
	return TimeNow().Unix()
}
