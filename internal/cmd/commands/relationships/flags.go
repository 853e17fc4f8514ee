package relationships

import (
	"strconv"
	"strings"
)

// int64SliceVar is a comma separated list of integers.
type int64SliceVar []int64

func (s *int64SliceVar) String() string {
	if s == nil {
		return ""
	}
	parts := make([]string, len(*s))
	for i, v := range *s {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, ",")
}

func (s *int64SliceVar) Set(v string) error {
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		n, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return err
		}
		*s = append(*s, n)
	}
	return nil
}
