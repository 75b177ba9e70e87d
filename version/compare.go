package version

import (
	"fmt"
	"strings"
)

// Compare orders two semantic version strings, tolerating a leading "v".
// It returns 1 when a is newer, -1 when b is newer and 0 when they are equal.
func Compare(a, b string) (int, error) {
	parse := func(s string) (v [3]int, err error) {
		_, err = fmt.Sscanf(strings.TrimPrefix(s, "v"), "%d.%d.%d", &v[0], &v[1], &v[2])
		return v, err
	}

	av, err := parse(a)
	if err != nil {
		return 0, err
	}

	bv, err := parse(b)
	if err != nil {
		return 0, err
	}

	for i := range av {
		switch {
		case av[i] > bv[i]:
			return 1, nil
		case av[i] < bv[i]:
			return -1, nil
		}
	}

	return 0, nil
}
