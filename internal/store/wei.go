package store

import (
	"fmt"
	"math/big"
)

// Wei amounts travel through Postgres as NUMERIC(78,0) and through Go as
// *big.Int; SQL casts them to text at the scan boundary.

func parseWei(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid wei value %q", s)
	}
	return v, nil
}

func parseWeiPtr(s *string) (*big.Int, error) {
	if s == nil {
		return nil, nil
	}
	return parseWei(*s)
}

func weiString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
