package series

// PriceKey names the last-price buffer of an instrument within a group.
func PriceKey(group, label string) string { return group + ":px:" + label }

// SpreadKey names the buffer of a spread within a group.
func SpreadKey(group, spread string) string { return group + ":spread:" + spread }
