package v3

import "github.com/kairyu/notionctl/internal/notion/types"

// officialToV3Type maps public-API block type names to the record
// store's vocabulary. Types not listed pass through unchanged.
var officialToV3Type = map[string]string{
	types.BlockParagraph:        "text",
	types.BlockHeading1:         "header",
	types.BlockHeading2:         "sub_header",
	types.BlockHeading3:         "sub_sub_header",
	types.BlockBulletedListItem: "bulleted_list",
	types.BlockNumberedListItem: "numbered_list",
}

// v3ToOfficialType is the reverse mapping, plus the store-native page
// and collection types projected into the canonical vocabulary.
var v3ToOfficialType = map[string]string{
	"text":                 types.BlockParagraph,
	"header":               types.BlockHeading1,
	"sub_header":           types.BlockHeading2,
	"sub_sub_header":       types.BlockHeading3,
	"bulleted_list":        types.BlockBulletedListItem,
	"numbered_list":        types.BlockNumberedListItem,
	"page":                 types.BlockChildPage,
	"collection_view":      types.BlockChildDatabase,
	"collection_view_page": types.BlockChildDatabase,
	"alias":                types.BlockLinkPreview,
}

// BlockArgs is the internal-vocabulary half of a block creation: the
// store type name plus property and format maps ready for CreateBlockOps.
type BlockArgs struct {
	Type       string
	Properties map[string]RichText
	Format     map[string]any
}

// OfficialBlockToV3Args maps one public-API block-creation object into
// the internal vocabulary. Pure construction; unknown official types
// pass through under their own name with no properties or format.
func OfficialBlockToV3Args(b types.BlockInput) BlockArgs {
	args := BlockArgs{Type: b.Type}
	if mapped, ok := officialToV3Type[b.Type]; ok {
		args.Type = mapped
	}

	props := map[string]RichText{}
	if b.Text != "" {
		props["title"] = Text(b.Text)
	}

	switch b.Type {
	case types.BlockCode:
		if b.Language != "" {
			props["language"] = Text(b.Language)
		}
	case types.BlockToDo:
		// Unchecked omits the key entirely; the store treats a missing
		// checked property as "No".
		if b.Checked {
			props["checked"] = Text("Yes")
		}
	case types.BlockImage, types.BlockEmbed, types.BlockVideo, types.BlockPDF, types.BlockAudio, types.BlockFile:
		if url := b.SourceURL(); url != "" {
			props["source"] = Text(url)
		}
	case types.BlockBookmark:
		if url := b.SourceURL(); url != "" {
			props["link"] = Text(url)
		}
	case types.BlockEquation:
		// The expression lives in the title slot, replacing any text.
		props["title"] = Text(b.Expression)
	case types.BlockCallout:
		if b.Emoji != "" {
			args.Format = map[string]any{"page_icon": b.Emoji}
		}
	}

	if len(props) > 0 {
		args.Properties = props
	}
	return args
}

// normalizeRecord projects one v3 block record into the canonical block
// shape, decoding the [[value]] property encoding.
func normalizeRecord(r BlockRecord) types.NormalizedBlock {
	blockType := r.Type
	if mapped, ok := v3ToOfficialType[r.Type]; ok {
		blockType = mapped
	}

	nb := types.NormalizedBlock{
		ID:          r.ID,
		Type:        blockType,
		RichText:    r.Properties["title"].Plain(),
		HasChildren: len(r.Content) > 0,
	}

	switch blockType {
	case types.BlockToDo:
		checked := r.Properties["checked"].Plain() == "Yes"
		nb.Checked = &checked
	case types.BlockCode:
		nb.Language = r.Properties["language"].Plain()
	case types.BlockImage, types.BlockEmbed, types.BlockVideo, types.BlockPDF, types.BlockAudio, types.BlockFile:
		nb.URL = r.Properties["source"].Plain()
		nb.Caption = r.Properties["caption"].Plain()
	case types.BlockBookmark:
		nb.URL = r.Properties["link"].Plain()
		nb.Caption = r.Properties["caption"].Plain()
	case types.BlockEquation:
		nb.Expression = r.Properties["title"].Plain()
		nb.RichText = ""
	case types.BlockChildPage, types.BlockChildDatabase:
		nb.Title = r.Properties["title"].Plain()
		nb.RichText = ""
	case types.BlockCallout:
		if icon, ok := r.Format["page_icon"].(string); ok {
			nb.Emoji = icon
		}
	}
	return nb
}
