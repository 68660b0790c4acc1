package seed

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fullPart() Part {
	return Part{
		Id:                      "p-shelf-bin",
		ApplianceType:           "Refrigerator",
		Title:                   "Refrigerator Door Shelf Bin",
		ProductDescription:      "Replacement bin for the fresh food door",
		Brand:                   "Whirlpool",
		Manufacturer:            "Whirlpool",
		MachineType:             "Refrigerator",
		PartType:                "Door Shelf",
		URL:                     "https://example.com/parts/PS11752778",
		PartSelectNumber:        "PS11752778",
		ManufacturerNumber:      "WPW10321304",
		Price:                   "36.08",
		StockStatus:             "In Stock",
		InstallationType:        "Really Easy",
		AverageInstallationTime: "Less than 15 mins",
		AverageCustomerRating:   4.7,
		ReviewCount:             213,
	}
}

func TestPartText(t *testing.T) {
	got := partText(fullPart())

	want := "Refrigerator Door Shelf Bin. " +
		"Replacement bin for the fresh food door. " +
		"Brand: Whirlpool. " +
		"Type: Door Shelf. " +
		"Machine: Refrigerator. " +
		"Installation: Really Easy. " +
		"Time: Less than 15 mins. " +
		"Rating: 4.7 stars. " +
		"Based on 213 reviews. " +
		"PartSelect: PS11752778. " +
		"Manufacturer: WPW10321304"
	assert.Equal(t, want, got)
}

func TestPartText_SkipsEmptyFields(t *testing.T) {
	p := Part{Title: "Water Filter", Brand: "LG"}
	assert.Equal(t, "Water Filter. Brand: LG", partText(p))

	assert.Empty(t, partText(Part{}))
}

func TestPartMetadata(t *testing.T) {
	meta := partMetadata(fullPart())

	assert.Equal(t, "parts_catalog", meta["source"])
	assert.Equal(t, "refrigerator", meta["appliance_type"])
	assert.Equal(t, "whirlpool", meta["brand"])
	assert.Equal(t, "Whirlpool", meta["manufacturer"])
	assert.Equal(t, "door_shelf", meta["part_type"])
	assert.Equal(t, "Refrigerator Door Shelf Bin", meta["title"])
	assert.Equal(t, "https://example.com/parts/PS11752778", meta["url"])
	assert.Equal(t, "PS11752778", meta["partselect_number"])
	assert.Equal(t, "WPW10321304", meta["manufacturer_number"])
	assert.Equal(t, "36.08", meta["price"])
	assert.Equal(t, "in_stock", meta["stock_status"])
	assert.Equal(t, "Really Easy", meta["installation_type"])
	assert.Equal(t, "Less than 15 mins", meta["average_installation_time"])
	assert.Equal(t, "4.7", meta["average_customer_rating"])
	assert.Equal(t, "213", meta["review_count"])

	// Machine type duplicates the appliance split and is not filterable.
	assert.NotContains(t, meta, "machine_type")
}

func TestPartMetadata_SkipsEmptyFields(t *testing.T) {
	meta := partMetadata(Part{Title: "Water Filter"})

	assert.Equal(t, "parts_catalog", meta["source"])
	assert.Equal(t, "Water Filter", meta["title"])
	assert.NotContains(t, meta, "brand")
	assert.NotContains(t, meta, "price")
	assert.NotContains(t, meta, "average_customer_rating")
	assert.NotContains(t, meta, "review_count")
}

func TestPartId_FallbackChain(t *testing.T) {
	tests := []struct {
		name string
		part Part
		want string
	}{
		{"scrape id wins", Part{Id: "p1", PartSelectNumber: "PS1", ManufacturerNumber: "M1"}, "p1"},
		{"partselect number", Part{PartSelectNumber: "PS1", ManufacturerNumber: "M1"}, "PS1"},
		{"manufacturer number", Part{ManufacturerNumber: "M1"}, "M1"},
		{"nothing", Part{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, partId(tt.part))
		})
	}
}

func TestPartSources_SplitsByAppliance(t *testing.T) {
	parts := []Part{
		{Id: "p1", ApplianceType: "Refrigerator", Title: "Ice Maker"},
		{ApplianceType: " DISHWASHER ", Title: "Spray Arm", PartSelectNumber: "PS77"},
		{ApplianceType: "Refrigerator", Title: "Mystery Part"}, // no identifier
	}

	fridge := partSources(quietLogger(), parts, "refrigerator")
	require.Len(t, fridge, 1)
	assert.Equal(t, "p1", fridge[0].Id)

	dish := partSources(quietLogger(), parts, "dishwasher")
	require.Len(t, dish, 1)
	assert.Equal(t, "PS77", dish[0].Id)
	assert.Equal(t, "dishwasher", dish[0].Metadata["appliance_type"])
}

func fullBlog() Blog {
	return Blog{
		Id:            "b1",
		ApplianceType: "Refrigerator",
		Brand:         "LG",
		Title:         "How to Clean Condenser Coils",
		Subtitle:      "Keep your refrigerator cooling efficiently",
		URL:           "https://example.com/blog/condenser-coils",
		TopicCategory: "Maintenance",
		ContentText:   "Dust on the coils makes the compressor work harder.",
		Videos:        []json.RawMessage{json.RawMessage(`{"video_id":"v9"}`)},
	}
}

func TestBlogSources(t *testing.T) {
	sources := blogSources([]Blog{fullBlog()})
	require.Len(t, sources, 1)

	src := sources[0]
	assert.Equal(t, "b1", src.Id)
	assert.Equal(t,
		"Title: How to Clean Condenser Coils. "+
			"Subtitle: Keep your refrigerator cooling efficiently. "+
			"Dust on the coils makes the compressor work harder.",
		src.Text)

	assert.Equal(t, "blog_article", src.Metadata["source"])
	assert.Equal(t, "b1", src.Metadata["article_id"])
	assert.Equal(t, "refrigerator", src.Metadata["appliance_type"])
	assert.Equal(t, "lg", src.Metadata["brand"])
	assert.Equal(t, "maintenance", src.Metadata["topic_category"])
	assert.Equal(t, "false", src.Metadata["has_images"])
	assert.Equal(t, "true", src.Metadata["has_videos"])
}

func TestBlogSources_SkipsEmptyLabels(t *testing.T) {
	sources := blogSources([]Blog{{Id: "b2", Title: "Noises Explained", ContentText: "Rattling is normal."}})
	require.Len(t, sources, 1)
	assert.Equal(t, "Title: Noises Explained. Rattling is normal.", sources[0].Text)

	sources = blogSources([]Blog{{Id: "b3", ContentText: "Bare body."}})
	require.Len(t, sources, 1)
	assert.Equal(t, "Bare body.", sources[0].Text)
}

func fullRepair() Repair {
	return Repair{
		Id:            "r1",
		ApplianceType: "Refrigerator",
		SymptomName:   "Fridge too warm",
		URL:           "https://example.com/repair/fridge-too-warm",
		Difficulty:    "Easy",
		Video: &RepairVideo{
			VideoId:      "v1",
			VideoURL:     "https://video.example/v1",
			ThumbnailURL: "https://video.example/v1.jpg",
		},
		Parts: []RepairPart{
			{
				Name:        "Evaporator Fan Motor",
				Description: "The fan circulates cold air through both compartments",
				RepairGuides: []RepairGuide{
					{
						Title:   "How to Replace the Evaporator Fan Motor",
						URL:     "https://example.com/guide/evap-fan",
						Content: "Unplug the unit and pull the fan housing",
					},
				},
			},
			{Name: "Thermostat"}, // no description
		},
		InspectionSteps: []InspectionSteps{
			{PartName: "Evaporator Fan Motor", Steps: []string{"Unplug the fridge.", "Remove the rear panel."}},
			{PartName: "Condenser Coils", Steps: []string{"Irrelevant for this part."}},
		},
	}
}

func TestRepairSources(t *testing.T) {
	sources := repairSources([]Repair{fullRepair()})
	require.Len(t, sources, 2)

	base := sources[0]
	assert.Equal(t, "r1_part_1", base.Id)
	assert.Equal(t,
		"Symptom: Fridge too warm. "+
			"Appliance: Refrigerator. "+
			"Difficulty: Easy. "+
			"Part: Evaporator Fan Motor. "+
			"Description: The fan circulates cold air through both compartments. "+
			"Inspection Steps: Unplug the fridge. Remove the rear panel. "+
			"Video Tutorial: https://video.example/v1",
		base.Text)

	assert.Equal(t, "repair_guide", base.Metadata["source"])
	assert.Equal(t, "r1", base.Metadata["symptom_id"])
	assert.Equal(t, "refrigerator", base.Metadata["appliance_type"])
	assert.Equal(t, "Fridge too warm", base.Metadata["symptom_name"])
	assert.Equal(t, "easy", base.Metadata["difficulty"])
	assert.Equal(t, "Evaporator Fan Motor", base.Metadata["part_name"])
	assert.Equal(t, "true", base.Metadata["has_video"])
	assert.Equal(t, "v1", base.Metadata["video_id"])
	assert.Equal(t, "https://video.example/v1", base.Metadata["video_url"])
	assert.Equal(t, "https://video.example/v1.jpg", base.Metadata["video_thumbnail"])
	assert.NotContains(t, base.Metadata, "repair_guide_type")

	guide := sources[1]
	assert.Equal(t, "r1_part_1_guide_1", guide.Id)
	assert.Contains(t, guide.Text, "Description: The fan circulates cold air through both compartments. "+
		"Guide: How to Replace the Evaporator Fan Motor. "+
		"Steps: Unplug the unit and pull the fan housing. "+
		"Inspection Steps:")
	assert.Equal(t, "replacement", guide.Metadata["repair_guide_type"])
	assert.Equal(t, "How to Replace the Evaporator Fan Motor", guide.Metadata["repair_guide_title"])
	assert.Equal(t, "https://example.com/guide/evap-fan", guide.Metadata["repair_guide_url"])
}

func TestRepairSources_StableIds(t *testing.T) {
	r := Repair{
		Id: "r2",
		Parts: []RepairPart{
			{Name: "Door Gasket"}, // skipped, but keeps its index
			{Name: "Drain Pump", Description: "Pumps water out of the tub"},
		},
	}

	sources := repairSources([]Repair{r})
	require.Len(t, sources, 1)
	assert.Equal(t, "r2_part_2", sources[0].Id)
}

func TestRepairSources_NoVideo(t *testing.T) {
	r := fullRepair()
	r.Video = nil

	sources := repairSources([]Repair{r})
	require.Len(t, sources, 2)

	base := sources[0]
	assert.Equal(t, "false", base.Metadata["has_video"])
	assert.NotContains(t, base.Metadata, "video_id")
	assert.NotContains(t, base.Text, "Video Tutorial")
}

func TestRepairSources_InspectionStepsMatchPartName(t *testing.T) {
	r := fullRepair()
	r.InspectionSteps = []InspectionSteps{{PartName: "Condenser Coils", Steps: []string{"Check the coils."}}}

	sources := repairSources([]Repair{r})
	require.Len(t, sources, 2)
	assert.NotContains(t, sources[0].Text, "Inspection Steps")
}

func TestGuideType(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"How to Test a Refrigerator Thermostat", "test"},
		{"TESTING the evaporator fan motor", "test"},
		{"Replacing the Door Seal", "replacement"},
		{"", "replacement"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, guideType(RepairGuide{Title: tt.title}), "title %q", tt.title)
	}
}

func TestCanon(t *testing.T) {
	assert.Equal(t, "in_stock", canon("In Stock"))
	assert.Equal(t, "a_bit_difficult", canon(" A Bit Difficult "))
	assert.Equal(t, "shelf", canon("Shelf"))
	assert.Empty(t, canon("  "))
}

func TestJoinSentences(t *testing.T) {
	assert.Equal(t, "a. b", joinSentences([]string{"a", "", "b"}))
	assert.Empty(t, joinSentences(nil))
}
