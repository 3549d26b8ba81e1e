// seed_suppliers.go — standalone script to generate a synthetic supplier base
// and load it through the Segment API.
//
// Usage:
//
//	go run scripts/seed_suppliers.go -n 1000 -api http://localhost:8700 -client seeder
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
)

type supplierRecord struct {
	SupplierID        string  `json:"supplier_id"`
	BusinessUnit      string  `json:"business_unit"`
	SoleSourceParts   int     `json:"sole_source_parts"`
	SingleSourceParts int     `json:"single_source_parts"`
	MultiSourceParts  int     `json:"multi_source_parts"`
	RampTimeMonths    float64 `json:"ramp_time_months"`
	AnnualSpend       float64 `json:"annual_spend"`
	PartnershipScore  int     `json:"partnership_score"`
	InnovationScore   int     `json:"innovation_score"`
	RiskScore         int     `json:"risk_score"`
}

var businessUnits = []struct {
	name   string
	weight float64
}{
	{"unit_a", 0.75},
	{"unit_b", 0.25},
}

var rampChoices = []struct {
	months float64
	weight float64
}{
	{3, 0.10}, {6, 0.30}, {9, 0.25}, {12, 0.20}, {18, 0.10}, {24, 0.05},
}

func main() {
	n := flag.Int("n", 1000, "number of suppliers to generate")
	apiURL := flag.String("api", "http://localhost:8700", "Segment API base URL")
	clientID := flag.String("client", "seeder", "X-Client-ID header value")
	seed := flag.Int64("seed", 42, "random seed")
	batch := flag.Int("batch", 200, "suppliers per request")
	dryRun := flag.Bool("dry-run", false, "print suppliers without posting")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	suppliers := make([]supplierRecord, 0, *n)
	for i := 0; i < *n; i++ {
		rec := supplierRecord{
			SupplierID:        fmt.Sprintf("SUP_%04d", i+1),
			BusinessUnit:      pickBU(rng),
			SoleSourceParts:   poisson(rng, 2),
			SingleSourceParts: poisson(rng, 5),
			MultiSourceParts:  poisson(rng, 15),
			RampTimeMonths:    pickRamp(rng),
			AnnualSpend:       math.Exp(rng.NormFloat64()*1.5 + 6), // lognormal, thousands
			PartnershipScore:  pickOrdinal(rng, 0.2, 0.6),
			InnovationScore:   pickOrdinal(rng, 0.3, 0.5),
			RiskScore:         pickOrdinal(rng, 0.4, 0.4),
		}
		// A supplier with zero tracked parts is unscorable; give it one
		// multi-source part instead of discarding it.
		if rec.SoleSourceParts+rec.SingleSourceParts+rec.MultiSourceParts == 0 {
			rec.MultiSourceParts = 1
		}
		suppliers = append(suppliers, rec)
	}

	if *dryRun {
		for _, rec := range suppliers {
			data, _ := json.Marshal(rec)
			fmt.Println(string(data))
		}
		return
	}

	posted := 0
	for start := 0; start < len(suppliers); start += *batch {
		end := start + *batch
		if end > len(suppliers) {
			end = len(suppliers)
		}
		if err := post(*apiURL, *clientID, suppliers[start:end]); err != nil {
			log.Fatalf("post suppliers: %v", err)
		}
		posted += end - start
	}
	log.Printf("seeded %d suppliers", posted)
}

func post(apiURL, clientID string, suppliers []supplierRecord) error {
	payload, err := json.Marshal(map[string]interface{}{"suppliers": suppliers})
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, apiURL+"/api/v1/suppliers", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-ID", clientID)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func pickBU(rng *rand.Rand) string {
	r := rng.Float64()
	var cum float64
	for _, bu := range businessUnits {
		cum += bu.weight
		if r < cum {
			return bu.name
		}
	}
	return businessUnits[len(businessUnits)-1].name
}

func pickRamp(rng *rand.Rand) float64 {
	r := rng.Float64()
	var cum float64
	for _, c := range rampChoices {
		cum += c.weight
		if r < cum {
			return c.months
		}
	}
	return rampChoices[len(rampChoices)-1].months
}

// pickOrdinal returns 1, 2 or 3 with P(1)=p1, P(2)=p2, P(3)=1-p1-p2.
func pickOrdinal(rng *rand.Rand, p1, p2 float64) int {
	r := rng.Float64()
	switch {
	case r < p1:
		return 1
	case r < p1+p2:
		return 2
	default:
		return 3
	}
}

// poisson draws via Knuth's method; fine for the small lambdas used here.
func poisson(rng *rand.Rand, lambda float64) int {
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}
