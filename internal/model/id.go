package model

import (
	"fmt"
	"strconv"
	"strings"
)

// FlexID is a user id that decodes from either a JSON number or a numeric
// string. Older clients and imported files send ids as strings.
type FlexID int64

func (id *FlexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", b)
	}

	*id = FlexID(n)
	return nil
}
