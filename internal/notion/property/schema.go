package property

import "github.com/kairyu/notionctl/internal/notion/types"

// Definition is one database column definition as returned by the
// public API.
type Definition struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Select      *OptionList    `json:"select,omitempty"`
	MultiSelect *OptionList    `json:"multi_select,omitempty"`
	Status      *StatusOptions `json:"status,omitempty"`
	UniqueID    *UniquePrefix  `json:"unique_id,omitempty"`
	Relation    *RelationDef   `json:"relation,omitempty"`
}

// OptionList holds the choices of a select-like column.
type OptionList struct {
	Options []OptionDef `json:"options"`
}

// StatusOptions adds workflow groups to the option list.
type StatusOptions struct {
	Options []OptionDef `json:"options"`
	Groups  []GroupDef  `json:"groups"`
}

// OptionDef is one choice definition.
type OptionDef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// GroupDef is one status workflow group, referencing members by option id.
type GroupDef struct {
	Name      string   `json:"name"`
	OptionIDs []string `json:"option_ids"`
}

// UniquePrefix holds the unique_id column prefix.
type UniquePrefix struct {
	Prefix *string `json:"prefix"`
}

// RelationDef names the related database.
type RelationDef struct {
	DatabaseID string `json:"database_id"`
}

// FlattenSchema projects column definitions into the canonical schema
// shape used for filter-building.
func FlattenSchema(defs map[string]Definition) types.DatabaseSchema {
	schema := make(types.DatabaseSchema, len(defs))
	for name, def := range defs {
		prop := types.SchemaProperty{ID: def.ID, Type: def.Type}
		switch def.Type {
		case "select":
			if def.Select != nil {
				prop.Options = flattenOptions(def.Select.Options)
			}
		case "multi_select":
			if def.MultiSelect != nil {
				prop.Options = flattenOptions(def.MultiSelect.Options)
			}
		case "status":
			if def.Status != nil {
				prop.Options = flattenOptions(def.Status.Options)
				prop.Groups = flattenGroups(def.Status.Groups, def.Status.Options)
			}
		case "unique_id":
			if def.UniqueID != nil && def.UniqueID.Prefix != nil {
				prop.Prefix = *def.UniqueID.Prefix
			}
		case "relation":
			if def.Relation != nil {
				prop.RelatedDatabase = def.Relation.DatabaseID
			}
		}
		schema[name] = prop
	}
	return schema
}

func flattenOptions(opts []OptionDef) []types.SelectOption {
	out := make([]types.SelectOption, 0, len(opts))
	for _, o := range opts {
		out = append(out, types.SelectOption{Name: o.Name, Color: o.Color})
	}
	return out
}

// flattenGroups resolves each group's member option ids against the full
// option list, producing group name -> member option names.
func flattenGroups(groups []GroupDef, opts []OptionDef) map[string][]string {
	if len(groups) == 0 {
		return nil
	}
	byID := make(map[string]string, len(opts))
	for _, o := range opts {
		byID[o.ID] = o.Name
	}
	out := make(map[string][]string, len(groups))
	for _, g := range groups {
		members := make([]string, 0, len(g.OptionIDs))
		for _, id := range g.OptionIDs {
			if name, ok := byID[id]; ok {
				members = append(members, name)
			}
		}
		out[g.Name] = members
	}
	return out
}
