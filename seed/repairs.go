package seed

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/ingestion"
)

// Repair is one symptom page from the repair scrape. Each page covers a
// symptom with the parts that can cause it, optional repair guides per part,
// inspection steps, and an optional video tutorial.
type Repair struct {
	Id              string            `json:"id"`
	ApplianceType   string            `json:"appliance_type"`
	SymptomName     string            `json:"symptom_name"`
	URL             string            `json:"url"`
	Difficulty      string            `json:"difficulty"`
	Video           *RepairVideo      `json:"video"`
	Parts           []RepairPart      `json:"parts"`
	InspectionSteps []InspectionSteps `json:"inspection_steps"`
}

type RepairVideo struct {
	VideoId      string `json:"video_id"`
	VideoURL     string `json:"video_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type RepairPart struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	RepairGuides []RepairGuide `json:"repair_guides"`
}

type RepairGuide struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type InspectionSteps struct {
	PartName string   `json:"part_name"`
	Steps    []string `json:"steps"`
}

// repairSources flattens symptom pages into one source per suspect part plus
// one per repair guide. Indexes in the generated ids follow the scrape order
// so a document keeps its identity when unrelated parts are added or removed.
func repairSources(repairs []Repair) []ingestion.Source {
	var sources []ingestion.Source
	for _, r := range repairs {
		for partIdx, part := range r.Parts {
			if part.Description == "" {
				continue
			}
			prefix := repairPrefix(r, part)
			suffix := repairSuffix(r, part)

			sources = append(sources, ingestion.Source{
				Id:       fmt.Sprintf("%s_part_%d", r.Id, partIdx+1),
				Text:     joinSentences(append(append([]string{}, prefix...), suffix...)),
				Metadata: repairMetadata(r, part),
			})

			for guideIdx, guide := range part.RepairGuides {
				elems := append([]string{}, prefix...)
				if guide.Title != "" {
					elems = append(elems, "Guide: "+guide.Title)
				}
				if guide.Content != "" {
					elems = append(elems, "Steps: "+guide.Content)
				}
				elems = append(elems, suffix...)

				meta := repairMetadata(r, part)
				meta["repair_guide_type"] = guideType(guide)
				setIf(meta, "repair_guide_title", guide.Title)
				setIf(meta, "repair_guide_url", guide.URL)

				sources = append(sources, ingestion.Source{
					Id:       fmt.Sprintf("%s_part_%d_guide_%d", r.Id, partIdx+1, guideIdx+1),
					Text:     joinSentences(elems),
					Metadata: meta,
				})
			}
		}
	}
	return sources
}

func repairPrefix(r Repair, part RepairPart) []string {
	var elems []string
	if r.SymptomName != "" {
		elems = append(elems, "Symptom: "+r.SymptomName)
	}
	if r.ApplianceType != "" {
		elems = append(elems, "Appliance: "+r.ApplianceType)
	}
	if r.Difficulty != "" {
		elems = append(elems, "Difficulty: "+r.Difficulty)
	}
	if part.Name != "" {
		elems = append(elems, "Part: "+part.Name)
	}
	return append(elems, "Description: "+part.Description)
}

func repairSuffix(r Repair, part RepairPart) []string {
	var elems []string
	if steps := inspectionStepsFor(r, part.Name); steps != "" {
		elems = append(elems, "Inspection Steps: "+steps)
	}
	if r.Video != nil && r.Video.VideoURL != "" {
		elems = append(elems, "Video Tutorial: "+r.Video.VideoURL)
	}
	return elems
}

func inspectionStepsFor(r Repair, partName string) string {
	for _, block := range r.InspectionSteps {
		if block.PartName == partName {
			return strings.Join(block.Steps, " ")
		}
	}
	return ""
}

func repairMetadata(r Repair, part RepairPart) core.Metadata {
	meta := core.Metadata{
		"source":    "repair_guide",
		"has_video": strconv.FormatBool(r.Video != nil),
	}
	setIf(meta, "symptom_id", r.Id)
	setIf(meta, "appliance_type", lower(r.ApplianceType))
	setIf(meta, "symptom_name", r.SymptomName)
	setIf(meta, "url", r.URL)
	setIf(meta, "difficulty", lower(r.Difficulty))
	setIf(meta, "part_name", part.Name)
	if r.Video != nil {
		setIf(meta, "video_id", r.Video.VideoId)
		setIf(meta, "video_url", r.Video.VideoURL)
		setIf(meta, "video_thumbnail", r.Video.ThumbnailURL)
	}
	return meta
}

// guideType tags disassembly/test articles apart from replacement walkthroughs
// so installation queries can filter to the latter.
func guideType(guide RepairGuide) string {
	if strings.Contains(strings.ToLower(guide.Title), "test") {
		return "test"
	}
	return "replacement"
}
