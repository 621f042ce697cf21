package models

type Attribute struct {
	AttributeID          int               `json:"attribute_id,omitempty"`
	AttributeCode        string            `json:"attribute_code"`
	FrontendInput        string            `json:"frontend_input"`
	DefaultFrontendLabel string            `json:"default_frontend_label"`
	Scope                string            `json:"scope,omitempty"`
	EntityTypeID         string            `json:"entity_type_id,omitempty"`
	IsRequired           bool              `json:"is_required"`
	IsUserDefined        bool              `json:"is_user_defined"`
	IsVisible            bool              `json:"is_visible"`
	IsSearchable         string            `json:"is_searchable,omitempty"`
	IsFilterable         string            `json:"is_filterable,omitempty"`
	IsComparable         string            `json:"is_comparable,omitempty"`
	IsVisibleOnFront     string            `json:"is_visible_on_front,omitempty"`
	UsedInProductListing string            `json:"used_in_product_listing,omitempty"`
	Options              []AttributeOption `json:"options,omitempty"`
}

type AttributeOption struct {
	Label string `json:"label"`
	Value string `json:"value,omitempty"`
}

type AttributeRequest struct {
	Attribute *Attribute `json:"attribute"`
}

type AttributeOptionRequest struct {
	Option *AttributeOption `json:"option"`
}

type AttributeSet struct {
	AttributeSetID   int    `json:"attribute_set_id,omitempty"`
	AttributeSetName string `json:"attribute_set_name"`
	EntityTypeID     int    `json:"entity_type_id,omitempty"`
	SortOrder        int    `json:"sort_order,omitempty"`
}

type AttributeSetRequest struct {
	AttributeSet *AttributeSet `json:"attributeSet"`
	SkeletonID   int           `json:"skeletonId"`
}

type AttributeSetList struct {
	Items      []*AttributeSet `json:"items"`
	TotalCount int             `json:"total_count"`
}
