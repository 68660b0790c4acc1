package seed

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/ingestion"
)

// Part is one catalog entry from the parts scrape.
type Part struct {
	Id                      string  `json:"id"`
	ApplianceType           string  `json:"appliance_type"`
	Title                   string  `json:"title"`
	ProductDescription      string  `json:"product_description"`
	Brand                   string  `json:"brand"`
	Manufacturer            string  `json:"manufacturer"`
	MachineType             string  `json:"machine_type"`
	PartType                string  `json:"part_type"`
	URL                     string  `json:"url"`
	PartSelectNumber        string  `json:"partselect_number"`
	ManufacturerNumber      string  `json:"manufacturer_number"`
	Price                   string  `json:"price"`
	StockStatus             string  `json:"stock_status"`
	InstallationType        string  `json:"installation_type"`
	AverageInstallationTime string  `json:"average_installation_time"`
	AverageCustomerRating   float64 `json:"average_customer_rating"`
	ReviewCount             int     `json:"review_count"`
}

// partSources converts the catalog entries for one appliance into ingestion
// sources. Entries without any usable identifier are dropped with a warning.
func partSources(logger *slog.Logger, parts []Part, appliance string) []ingestion.Source {
	sources := make([]ingestion.Source, 0, len(parts))
	for _, p := range parts {
		if lower(p.ApplianceType) != appliance {
			continue
		}
		id := partId(p)
		if id == "" {
			logger.Warn("dropping catalog entry without identifier", "title", p.Title)
			continue
		}
		sources = append(sources, ingestion.Source{
			Id:       id,
			Text:     partText(p),
			Metadata: partMetadata(p),
		})
	}
	return sources
}

// partId prefers the scrape id, then the catalog part numbers, so an entry
// keeps its identity across re-scrapes.
func partId(p Part) string {
	switch {
	case p.Id != "":
		return p.Id
	case p.PartSelectNumber != "":
		return p.PartSelectNumber
	default:
		return p.ManufacturerNumber
	}
}

func partText(p Part) string {
	var elems []string
	elems = append(elems, p.Title, p.ProductDescription)
	if p.Brand != "" {
		elems = append(elems, "Brand: "+p.Brand)
	}
	if p.PartType != "" {
		elems = append(elems, "Type: "+p.PartType)
	}
	if p.MachineType != "" {
		elems = append(elems, "Machine: "+p.MachineType)
	}
	if p.InstallationType != "" {
		elems = append(elems, "Installation: "+p.InstallationType)
	}
	if p.AverageInstallationTime != "" {
		elems = append(elems, "Time: "+p.AverageInstallationTime)
	}
	if p.AverageCustomerRating != 0 {
		elems = append(elems, fmt.Sprintf("Rating: %s stars", formatRating(p.AverageCustomerRating)))
	}
	if p.ReviewCount != 0 {
		elems = append(elems, fmt.Sprintf("Based on %d reviews", p.ReviewCount))
	}
	if p.PartSelectNumber != "" {
		elems = append(elems, "PartSelect: "+p.PartSelectNumber)
	}
	if p.ManufacturerNumber != "" {
		elems = append(elems, "Manufacturer: "+p.ManufacturerNumber)
	}
	return joinSentences(elems)
}

func partMetadata(p Part) core.Metadata {
	meta := core.Metadata{"source": "parts_catalog"}
	setIf(meta, "appliance_type", lower(p.ApplianceType))
	setIf(meta, "brand", lower(p.Brand))
	setIf(meta, "manufacturer", p.Manufacturer)
	setIf(meta, "part_type", canon(p.PartType))
	setIf(meta, "title", p.Title)
	setIf(meta, "url", p.URL)
	setIf(meta, "partselect_number", p.PartSelectNumber)
	setIf(meta, "manufacturer_number", p.ManufacturerNumber)
	setIf(meta, "price", p.Price)
	setIf(meta, "stock_status", canon(p.StockStatus))
	setIf(meta, "installation_type", p.InstallationType)
	setIf(meta, "average_installation_time", p.AverageInstallationTime)
	if p.AverageCustomerRating != 0 {
		meta["average_customer_rating"] = formatRating(p.AverageCustomerRating)
	}
	if p.ReviewCount != 0 {
		meta["review_count"] = strconv.Itoa(p.ReviewCount)
	}
	return meta
}

func formatRating(rating float64) string {
	return strconv.FormatFloat(rating, 'f', -1, 64)
}
