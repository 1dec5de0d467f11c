package bridge

import (
	"encoding/json"
	"fmt"

	"reattach/core/persistent"
	"reattach/core/utils"
)

// Wire keys of the descriptor mapping form.
const (
	KeyClass      = "class"
	KeyID         = "id"
	KeyUnderlying = "underlying"
	KeyRole       = "role"
	KeyKey        = "key"
	KeyIDList     = "idList"
	KeyValueList  = "valueList"
	KeyEntityName = "entityName"
	KeyValue      = "value"
)

// SerializableID is the portable form of one collection member. Entities carry ID,
// numbers, strings and enums carry Value; exactly one of both is set.
type SerializableID struct {
	EntityName string  `json:"entityName"`
	ID         any     `json:"id,omitempty"`
	Value      *string `json:"value,omitempty"`
}

func (s SerializableID) String() string {
	if s.ID != nil {
		return fmt.Sprintf("%s#%s", s.EntityName, utils.CanonicalID(s.ID))
	}
	if s.Value != nil {
		return fmt.Sprintf("%s=%s", s.EntityName, *s.Value)
	}
	return s.EntityName
}

// Validate rejects descriptors carrying both an id and a value.
func (s SerializableID) Validate() error {
	if s.ID != nil && s.Value != nil {
		return fmt.Errorf("%w: %s has both id and value", ErrInvalidDescriptor, s.EntityName)
	}
	return nil
}

// ToMap returns the mapping form.
func (s SerializableID) ToMap() map[string]any {
	m := map[string]any{KeyEntityName: s.EntityName}
	if s.ID != nil {
		m[KeyID] = s.ID
	}
	if s.Value != nil {
		m[KeyValue] = *s.Value
	}
	return m
}

// SerializableIDFromMap parses the mapping form.
func SerializableIDFromMap(m map[string]any) (SerializableID, error) {
	var sid SerializableID
	name, ok := m[KeyEntityName].(string)
	if !ok || name == "" {
		return sid, fmt.Errorf("%w: member without entity name", ErrInvalidDescriptor)
	}
	sid.EntityName = name
	sid.ID = m[KeyID]
	if v, ok := m[KeyValue]; ok && v != nil {
		s := utils.ToString(v)
		sid.Value = &s
	}
	return sid, sid.Validate()
}

// StringValue returns a pointer to v, for building value descriptors.
func StringValue(v string) *string { return &v }

// ProxyDescriptor is the portable form of an entity proxy.
type ProxyDescriptor struct {
	Class string `json:"class"`
	ID    any    `json:"id"`
}

// ToMap returns the mapping form.
func (d *ProxyDescriptor) ToMap() map[string]any {
	return map[string]any{KeyClass: d.Class, KeyID: d.ID}
}

// ProxyDescriptorFromMap parses the mapping form.
func ProxyDescriptorFromMap(m map[string]any) (*ProxyDescriptor, error) {
	class, ok := m[KeyClass].(string)
	if !ok || class == "" {
		return nil, fmt.Errorf("%w: proxy without class", ErrInvalidDescriptor)
	}
	return &ProxyDescriptor{Class: class, ID: m[KeyID]}, nil
}

// CollectionDescriptor is the portable form of a collection or map wrapper.
// IDList is meaningful only when Initialized; ValueList is only used by maps and pairs
// positionally with IDList.
type CollectionDescriptor struct {
	Class       string
	Underlying  string
	Role        string
	Key         any
	Initialized bool
	IDList      []SerializableID
	ValueList   []SerializableID
}

// IsMap reports whether the descriptor names a map wrapper.
func (d *CollectionDescriptor) IsMap() bool {
	kind, err := persistent.ParseKind(d.Class)
	return err == nil && kind.IsMap()
}

// ToMap returns the mapping form. idList is present iff the wrapper was initialized.
func (d *CollectionDescriptor) ToMap() map[string]any {
	m := map[string]any{
		KeyClass: d.Class,
		KeyRole:  d.Role,
		KeyKey:   d.Key,
	}
	if d.Underlying != "" {
		m[KeyUnderlying] = d.Underlying
	}
	if d.Initialized {
		m[KeyIDList] = sidMaps(d.IDList)
		if d.IsMap() {
			m[KeyValueList] = sidMaps(d.ValueList)
		}
	}
	return m
}

func sidMaps(ids []SerializableID) []map[string]any {
	out := make([]map[string]any, 0, len(ids))
	for _, sid := range ids {
		out = append(out, sid.ToMap())
	}
	return out
}

// CollectionDescriptorFromMap parses the mapping form.
func CollectionDescriptorFromMap(m map[string]any) (*CollectionDescriptor, error) {
	class, ok := m[KeyClass].(string)
	if !ok || class == "" {
		return nil, fmt.Errorf("%w: collection without class", ErrInvalidDescriptor)
	}
	d := &CollectionDescriptor{Class: class, Key: m[KeyKey]}
	d.Role, _ = m[KeyRole].(string)
	d.Underlying, _ = m[KeyUnderlying].(string)

	raw, present := m[KeyIDList]
	if !present || raw == nil {
		return d, nil
	}
	d.Initialized = true

	var err error
	if d.IDList, err = parseSIDs(raw); err != nil {
		return nil, err
	}
	if values, ok := m[KeyValueList]; ok && values != nil {
		if d.ValueList, err = parseSIDs(values); err != nil {
			return nil, err
		}
	}
	if d.ValueList != nil && len(d.ValueList) != len(d.IDList) {
		return nil, fmt.Errorf("%w: %d keys for %d values", ErrInvalidDescriptor, len(d.IDList), len(d.ValueList))
	}
	return d, nil
}

func parseSIDs(raw any) ([]SerializableID, error) {
	switch list := raw.(type) {
	case []SerializableID:
		for _, sid := range list {
			if err := sid.Validate(); err != nil {
				return nil, err
			}
		}
		return list, nil
	case []map[string]any:
		out := make([]SerializableID, 0, len(list))
		for _, item := range list {
			sid, err := SerializableIDFromMap(item)
			if err != nil {
				return nil, err
			}
			out = append(out, sid)
		}
		return out, nil
	case []any:
		out := make([]SerializableID, 0, len(list))
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: member of type %T", ErrInvalidDescriptor, item)
			}
			sid, err := SerializableIDFromMap(m)
			if err != nil {
				return nil, err
			}
			out = append(out, sid)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: id list of type %T", ErrInvalidDescriptor, raw)
	}
}

// MarshalJSON writes the mapping form, so an initialized but empty collection keeps its idList.
func (d *CollectionDescriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.ToMap())
}

// UnmarshalJSON reads the mapping form.
func (d *CollectionDescriptor) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	parsed, err := CollectionDescriptorFromMap(m)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}
