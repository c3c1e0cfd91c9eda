package chain

import "fmt"

// Split turns a flat token list into chains. Tokens equal to separator start a
// new parallel chain; tokens equal to the doubled separator start the next
// sequential step inside the current chain. Empty groups are skipped.
func Split(separator string, tokens []string) (Set, error) {
	if separator == "" {
		return nil, fmt.Errorf("separator must not be empty")
	}
	sequential := separator + separator

	var set Set
	for _, group := range splitOn(tokens, separator) {
		var c Chain
		for _, step := range splitOn(group, sequential) {
			spec, err := NewProcessSpec(step)
			if err != nil {
				return nil, err
			}
			c.Steps = append(c.Steps, spec)
		}
		if len(c.Steps) > 0 {
			set = append(set, c)
		}
	}
	if len(set) == 0 {
		return nil, ErrNoChains
	}
	return set, nil
}

func splitOn(tokens []string, sep string) [][]string {
	var (
		groups  [][]string
		current []string
	)
	for _, token := range tokens {
		if token == sep {
			if len(current) > 0 {
				groups = append(groups, current)
			}
			current = nil
			continue
		}
		current = append(current, token)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}
