package models

import (
	"fmt"
	"net/url"
)

// SearchCriteria builds the searchCriteria query-string format of the
// store API: pagination, sort orders and filter groups (groups are ANDed,
// filters inside one group are ORed).
type SearchCriteria struct {
	currentPage int
	pageSize    int
	sortOrders  []sortOrder
	groups      [][]Filter
}

type sortOrder struct {
	Field     string
	Direction string
}

type Filter struct {
	Field         string
	Value         string
	ConditionType string
}

func NewSearchCriteria() *SearchCriteria {
	return &SearchCriteria{}
}

func (sc *SearchCriteria) Page(page int) *SearchCriteria {
	sc.currentPage = page
	return sc
}

func (sc *SearchCriteria) PageSize(size int) *SearchCriteria {
	sc.pageSize = size
	return sc
}

func (sc *SearchCriteria) SortBy(field, direction string) *SearchCriteria {
	sc.sortOrders = append(sc.sortOrders, sortOrder{Field: field, Direction: direction})
	return sc
}

// Filter starts a new AND group with a single condition.
func (sc *SearchCriteria) Filter(field, value, conditionType string) *SearchCriteria {
	sc.groups = append(sc.groups, []Filter{{Field: field, Value: value, ConditionType: conditionType}})
	return sc
}

// OrFilter adds a condition to the last group (OR semantics).
func (sc *SearchCriteria) OrFilter(field, value, conditionType string) *SearchCriteria {
	if len(sc.groups) == 0 {
		return sc.Filter(field, value, conditionType)
	}
	last := len(sc.groups) - 1
	sc.groups[last] = append(sc.groups[last], Filter{Field: field, Value: value, ConditionType: conditionType})
	return sc
}

func (sc *SearchCriteria) Values() url.Values {
	v := url.Values{}
	if sc.currentPage > 0 {
		v.Set("searchCriteria[currentPage]", fmt.Sprintf("%d", sc.currentPage))
	}
	if sc.pageSize > 0 {
		v.Set("searchCriteria[pageSize]", fmt.Sprintf("%d", sc.pageSize))
	}
	for i, so := range sc.sortOrders {
		v.Set(fmt.Sprintf("searchCriteria[sortOrders][%d][field]", i), so.Field)
		v.Set(fmt.Sprintf("searchCriteria[sortOrders][%d][direction]", i), so.Direction)
	}
	for g, group := range sc.groups {
		for f, filter := range group {
			prefix := fmt.Sprintf("searchCriteria[filter_groups][%d][filters][%d]", g, f)
			v.Set(prefix+"[field]", filter.Field)
			v.Set(prefix+"[value]", filter.Value)
			if filter.ConditionType != "" {
				v.Set(prefix+"[condition_type]", filter.ConditionType)
			}
		}
	}
	if len(v) == 0 {
		// the API requires the parameter even for "match all"
		v.Set("searchCriteria", "")
	}
	return v
}
