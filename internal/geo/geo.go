// Package geo joins state boundaries from a GeoJSON file with the per-state
// analysis to produce a customer choropleth.
package geo

import (
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/bharath-k9/Analytics-dashboard/internal/models"
)

const (
	NoDataFill     = "#e6eef6"
	nameLabelRunes = 10
	productRunes   = 26
)

// codeProperties are tried in order; the first non-empty one wins.
var codeProperties = []string{
	"sigla", "SIGLA", "abbr", "ABBREV", "st", "UF", "uf", "code",
	"CD_GEOCODU", "ISO_UF", "sigla_uf", "name", "NAME_1", "nome",
}

var nameToCode = map[string]string{
	"ACRE": "AC", "ALAGOAS": "AL", "AMAPÁ": "AP", "AMAPA": "AP",
	"AMAZONAS": "AM", "BAHIA": "BA", "CEARÁ": "CE", "CEARA": "CE",
	"DISTRITO FEDERAL": "DF", "ESPÍRITO SANTO": "ES", "ESPIRITO SANTO": "ES",
	"GOIÁS": "GO", "GOIAS": "GO", "MARANHÃO": "MA", "MARANHAO": "MA",
	"MATO GROSSO": "MT", "MATO GROSSO DO SUL": "MS", "MINAS GERAIS": "MG",
	"PARÁ": "PA", "PARA": "PA", "PARAÍBA": "PB", "PARAIBA": "PB",
	"PARANÁ": "PR", "PARANA": "PR", "PERNAMBUCO": "PE", "PIAUÍ": "PI",
	"PIAUI": "PI", "RIO DE JANEIRO": "RJ", "RIO GRANDE DO NORTE": "RN",
	"RIO GRANDE DO SUL": "RS", "RONDÔNIA": "RO", "RONDONIA": "RO",
	"RORAIMA": "RR", "SANTA CATARINA": "SC", "SÃO PAULO": "SP",
	"SAO PAULO": "SP", "SERGIPE": "SE", "TOCANTINS": "TO",
}

// Region is one boundary from the GeoJSON source.
type Region struct {
	Code     string
	Name     string
	Geometry orb.Geometry
}

// Load reads a FeatureCollection from path. Features without geometry are
// skipped.
func Load(path string) ([]Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]Region, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	regions := make([]Region, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		code, raw := RegionCode(f.Properties)
		name := firstString(f.Properties, "name", "nome")
		if name == "" {
			name = raw
		}
		if name == "" {
			name = code
		}
		regions = append(regions, Region{Code: code, Name: name, Geometry: f.Geometry})
	}
	return regions, nil
}

// RegionCode extracts an uppercase state code from feature properties,
// along with the raw property value it came from. Values longer than two
// letters are resolved as full state names.
func RegionCode(props geojson.Properties) (code, raw string) {
	raw = firstString(props, codeProperties...)
	code = strings.ToUpper(raw)
	if len(code) > 2 {
		if mapped, ok := nameToCode[code]; ok {
			return mapped, raw
		}
	}
	return code, raw
}

func firstString(props geojson.Properties, keys ...string) string {
	for _, k := range keys {
		v, ok := props[k]
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprint(v))
		if s != "" && s != "0" {
			return s
		}
	}
	return ""
}

type Options struct {
	LabelThreshold int64
	ShowAllLabels  bool
	ShowTopProduct bool
}

// Feature is a region annotated for rendering.
type Feature struct {
	Code              string       `json:"code"`
	Name              string       `json:"name"`
	Label             string       `json:"label"`
	Customers         int64        `json:"customers"`
	Revenue           float64      `json:"revenue"`
	TopProduct        string       `json:"top_product,omitempty"`
	TopProductRevenue float64      `json:"top_product_revenue,omitempty"`
	Fill              string       `json:"fill"`
	Centroid          orb.Point    `json:"centroid"`
	ShowLabel         bool         `json:"show_label"`
	Geometry          orb.Geometry `json:"-"`
}

// Annotate colors each region by customer count over the observed range and
// decides which regions carry a label.
func Annotate(regions []Region, analysis []models.StateAnalysis, opts Options) []Feature {
	byCode := make(map[string]models.StateAnalysis, len(analysis))
	for _, s := range analysis {
		byCode[s.State] = s
	}
	scale := newScale(analysis)

	out := make([]Feature, 0, len(regions))
	for _, r := range regions {
		s := byCode[r.Code]
		f := Feature{
			Code:      r.Code,
			Name:      r.Name,
			Label:     truncate(r.Name, nameLabelRunes),
			Customers: s.TotalCustomers,
			Revenue:   s.TotalRevenue,
			Fill:      NoDataFill,
			ShowLabel: opts.ShowAllLabels || s.TotalCustomers >= opts.LabelThreshold,
			Geometry:  r.Geometry,
		}
		if s.TotalCustomers != 0 {
			f.Fill = scale.color(float64(s.TotalCustomers))
		}
		if opts.ShowTopProduct && s.TopProduct != nil {
			f.TopProduct = truncate(s.TopProduct.DisplayName, productRunes)
			f.TopProductRevenue = s.TopProduct.Revenue
		}
		if r.Geometry != nil {
			f.Centroid, _ = planar.CentroidArea(r.Geometry)
		}
		out = append(out, f)
	}
	return out
}

// Collection converts annotated features back to GeoJSON with the
// annotations as properties.
func Collection(features []Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		gf := geojson.NewFeature(f.Geometry)
		gf.ID = f.Code
		gf.Properties = geojson.Properties{
			"code":       f.Code,
			"name":       f.Name,
			"label":      f.Label,
			"customers":  f.Customers,
			"revenue":    f.Revenue,
			"fill":       f.Fill,
			"centroid":   []float64{f.Centroid.X(), f.Centroid.Y()},
			"show_label": f.ShowLabel,
		}
		if f.TopProduct != "" {
			gf.Properties["top_product"] = f.TopProduct
			gf.Properties["top_product_revenue"] = f.TopProductRevenue
		}
		fc.Append(gf)
	}
	return fc
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
