package routes

import (
	"fmt"
	"strconv"
)

func pathf(format string, id int64) string {
	return fmt.Sprintf(format, id)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
