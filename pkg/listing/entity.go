package listing

// GroupBy selects the key the root listing is bucketed under.
type GroupBy string

const (
	GroupByType GroupBy = "type"
	GroupByBay  GroupBy = "bay"
)

// SentinelGroup collects entities that lack the requested group key: IEDs
// without a type attribute, or without any bay association.
const SentinelGroup = "Unknown"

// ParseGroupBy maps a request string onto a grouping. The empty string
// defaults to grouping by device type.
func ParseGroupBy(s string) (GroupBy, error) {
	switch s {
	case "", string(GroupByType):
		return GroupByType, nil
	case string(GroupByBay):
		return GroupByBay, nil
	}
	return "", badGroupByError(GroupBy(s))
}

// Entity is one root device in the listing. Attribute pointers are nil
// when the store holds no triple for them; a bound empty string stays an
// empty string.
type Entity struct {
	ID           string  `json:"id"`
	Name         *string `json:"name"`
	Type         *string `json:"type"`
	Manufacturer *string `json:"manufacturer"`
	Desc         *string `json:"desc"`
}

// Result is a complete root listing. Every matching entity appears in
// exactly one group, so TotalCount always equals the sum of the group
// sizes.
type Result struct {
	Groups     map[string][]Entity `json:"groups"`
	TotalCount int                 `json:"totalCount"`
}
