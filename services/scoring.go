package services

import (
	"math"
	"sort"

	"github.com/kendall-kelly/quotation-allocation-api/models"
	"github.com/shopspring/decimal"
)

// Composite score weights. Lower composite scores are better.
const (
	PriceWeight    = 0.6
	DeliveryWeight = 0.25
	StockWeight    = 0.15
)

// stockCoverageMultiple is how many times the required quantity a distributor
// must offer for an item to count towards stock coverage
const stockCoverageMultiple = 2

// scorePrecision is the number of composite score steps per unit. Scores are
// rounded to it once so ranking can compare them exactly.
const scorePrecision = 1e9

func roundScore(score float64) float64 {
	return math.Round(score*scorePrecision) / scorePrecision
}

// CandidateLine is one distributor's offer for one quotation item
type CandidateLine struct {
	ProductID         uint            `json:"product_id"`
	RequiredQuantity  int             `json:"required_quantity"`
	Offered           bool            `json:"offered"`
	PricePerUnit      decimal.Decimal `json:"price_per_unit"`
	AvailableQuantity int             `json:"available_quantity"`
	DeliveryDays      int             `json:"delivery_days"`
	LineTotal         decimal.Decimal `json:"line_total"`
}

// Candidate is the aggregate view of one distributor's bids for a quotation
type Candidate struct {
	DistributorID   uint            `json:"distributor_id"`
	Eligible        bool            `json:"eligible"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	MaxDeliveryDays int             `json:"max_delivery_days"`
	StockCoverage   float64         `json:"stock_coverage"` // percent of items offered at twice the required quantity
	Lines           []CandidateLine `json:"lines"`
}

// ScoredCandidate is an eligible candidate with its normalized metrics
type ScoredCandidate struct {
	Candidate
	PriceNorm    float64 `json:"price_norm"`
	DeliveryNorm float64 `json:"delivery_norm"`
	StockNorm    float64 `json:"stock_norm"`
	Composite    float64 `json:"composite_score"`
}

// BuildCandidates aggregates submitted responses into one candidate per
// distributor, ordered by distributor id. A distributor is eligible only if
// it offers every item with at least the required quantity.
func BuildCandidates(items []models.QuotationItem, responses []models.DistributorResponse) []Candidate {
	byDistributor := make(map[uint]map[uint]models.DistributorResponse)
	for _, r := range responses {
		rows, ok := byDistributor[r.DistributorID]
		if !ok {
			rows = make(map[uint]models.DistributorResponse)
			byDistributor[r.DistributorID] = rows
		}
		if _, seen := rows[r.ProductID]; !seen {
			rows[r.ProductID] = r
		}
	}

	distributorIDs := make([]uint, 0, len(byDistributor))
	for id := range byDistributor {
		distributorIDs = append(distributorIDs, id)
	}
	sort.Slice(distributorIDs, func(i, j int) bool { return distributorIDs[i] < distributorIDs[j] })

	candidates := make([]Candidate, 0, len(distributorIDs))
	for _, id := range distributorIDs {
		candidates = append(candidates, buildCandidate(id, items, byDistributor[id]))
	}
	return candidates
}

func buildCandidate(distributorID uint, items []models.QuotationItem, rows map[uint]models.DistributorResponse) Candidate {
	c := Candidate{
		DistributorID: distributorID,
		Eligible:      len(items) > 0,
		TotalPrice:    decimal.Zero,
		Lines:         make([]CandidateLine, 0, len(items)),
	}

	wellStocked := 0
	for _, item := range items {
		line := CandidateLine{ProductID: item.ProductID, RequiredQuantity: item.RequiredQuantity}

		row, ok := rows[item.ProductID]
		if !ok || !isComplete(row) {
			c.Eligible = false
			c.Lines = append(c.Lines, line)
			continue
		}

		line.Offered = true
		line.PricePerUnit = row.PricePerUnit.Decimal
		line.AvailableQuantity = *row.AvailableQuantity
		line.DeliveryDays = *row.DeliveryDays
		line.LineTotal = line.PricePerUnit.Mul(decimal.NewFromInt(int64(item.RequiredQuantity)))

		c.TotalPrice = c.TotalPrice.Add(line.LineTotal)
		if line.DeliveryDays > c.MaxDeliveryDays {
			c.MaxDeliveryDays = line.DeliveryDays
		}
		if line.AvailableQuantity < item.RequiredQuantity {
			c.Eligible = false
		}
		if line.AvailableQuantity >= stockCoverageMultiple*item.RequiredQuantity {
			wellStocked++
		}
		c.Lines = append(c.Lines, line)
	}

	if len(items) > 0 {
		c.StockCoverage = float64(wellStocked) / float64(len(items)) * 100
	}
	return c
}

func isComplete(r models.DistributorResponse) bool {
	return r.Submitted && r.PricePerUnit.Valid && r.AvailableQuantity != nil && r.DeliveryDays != nil
}

// EligibleCandidates filters out distributors that cannot fulfill the quotation
func EligibleCandidates(candidates []Candidate) []Candidate {
	eligible := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Eligible {
			eligible = append(eligible, c)
		}
	}
	return eligible
}

// ScoreCandidates min-max normalizes price, delivery and stock coverage across
// the given candidates and combines them into a composite score. A metric
// whose range is zero normalizes to 0 for every candidate.
func ScoreCandidates(candidates []Candidate) []ScoredCandidate {
	if len(candidates) == 0 {
		return nil
	}

	minPrice, maxPrice := candidates[0].TotalPrice, candidates[0].TotalPrice
	minDelivery, maxDelivery := candidates[0].MaxDeliveryDays, candidates[0].MaxDeliveryDays
	minStock, maxStock := candidates[0].StockCoverage, candidates[0].StockCoverage
	for _, c := range candidates[1:] {
		if c.TotalPrice.LessThan(minPrice) {
			minPrice = c.TotalPrice
		}
		if c.TotalPrice.GreaterThan(maxPrice) {
			maxPrice = c.TotalPrice
		}
		if c.MaxDeliveryDays < minDelivery {
			minDelivery = c.MaxDeliveryDays
		}
		if c.MaxDeliveryDays > maxDelivery {
			maxDelivery = c.MaxDeliveryDays
		}
		minStock = math.Min(minStock, c.StockCoverage)
		maxStock = math.Max(maxStock, c.StockCoverage)
	}

	priceRange := maxPrice.Sub(minPrice)
	deliveryRange := maxDelivery - minDelivery
	stockRange := maxStock - minStock

	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		s := ScoredCandidate{Candidate: c}
		if priceRange.IsPositive() {
			s.PriceNorm = c.TotalPrice.Sub(minPrice).Div(priceRange).InexactFloat64()
		}
		if deliveryRange > 0 {
			s.DeliveryNorm = float64(c.MaxDeliveryDays-minDelivery) / float64(deliveryRange)
		}
		if stockRange > 0 {
			s.StockNorm = (c.StockCoverage - minStock) / stockRange
		}
		s.Composite = roundScore(PriceWeight*s.PriceNorm + DeliveryWeight*s.DeliveryNorm + StockWeight*(1-s.StockNorm))
		scored = append(scored, s)
	}
	return scored
}

// RankCandidates orders scored candidates best first: composite score, then
// total price, then max delivery days, then lowest distributor id.
func RankCandidates(scored []ScoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Composite != b.Composite {
			return a.Composite < b.Composite
		}
		if cmp := a.TotalPrice.Cmp(b.TotalPrice); cmp != 0 {
			return cmp < 0
		}
		if a.MaxDeliveryDays != b.MaxDeliveryDays {
			return a.MaxDeliveryDays < b.MaxDeliveryDays
		}
		return a.DistributorID < b.DistributorID
	})
}

// SelectWinner scores the eligible candidates and returns the best one.
// The second return value is false when no candidate is eligible.
func SelectWinner(candidates []Candidate) (ScoredCandidate, []ScoredCandidate, bool) {
	scored := ScoreCandidates(EligibleCandidates(candidates))
	if len(scored) == 0 {
		return ScoredCandidate{}, nil, false
	}
	RankCandidates(scored)
	return scored[0], scored, true
}
