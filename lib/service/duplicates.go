package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fundhub/fundhub.go/db/models"
	"github.com/shopspring/decimal"
)

// MatchTier classifies a candidate duplicate pair. Lower values are
// stronger matches.
type MatchTier int

const (
	TierExact MatchTier = iota
	TierLikely
	TierPossible
)

func (t MatchTier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierLikely:
		return "likely"
	case TierPossible:
		return "possible"
	}
	return fmt.Sprintf("MatchTier(%d)", int(t))
}

func (t MatchTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *MatchTier) UnmarshalText(text []byte) error {
	for _, tier := range []MatchTier{TierExact, TierLikely, TierPossible} {
		if tier.String() == string(text) {
			*t = tier
			return nil
		}
	}
	return fmt.Errorf("unknown match tier %q", string(text))
}

// Resolution is the reviewer's decision on a duplicate pair.
type Resolution int

const (
	ResolutionKeep Resolution = iota
	ResolutionDismiss
	ResolutionDelete1
	ResolutionDelete2
	ResolutionMergeInto1
	ResolutionMergeInto2
)

func (r Resolution) String() string {
	switch r {
	case ResolutionKeep:
		return "keep"
	case ResolutionDismiss:
		return "dismiss"
	case ResolutionDelete1:
		return "delete_1"
	case ResolutionDelete2:
		return "delete_2"
	case ResolutionMergeInto1:
		return "merge_into_1"
	case ResolutionMergeInto2:
		return "merge_into_2"
	}
	return fmt.Sprintf("Resolution(%d)", int(r))
}

func ParseResolution(s string) (Resolution, error) {
	for _, r := range []Resolution{
		ResolutionKeep, ResolutionDismiss,
		ResolutionDelete1, ResolutionDelete2,
		ResolutionMergeInto1, ResolutionMergeInto2,
	} {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, &ValidationError{Field: "resolution", Reason: fmt.Sprintf("unknown resolution %q", s)}
}

type DuplicateCriteria struct {
	StartDate              *time.Time `json:"start_date,omitempty"`
	EndDate                *time.Time `json:"end_date,omitempty"`
	DateToleranceDays      int        `json:"date_tolerance_days"`
	AmountTolerancePercent float64    `json:"amount_tolerance_percent"`
	MatchPayee             bool       `json:"match_payee"`
	MatchDescription       bool       `json:"match_description"`
	MatchCategory          bool       `json:"match_category"`
	MatchFund              bool       `json:"match_fund"`
	MinMatchTier           MatchTier  `json:"min_match_tier"`
}

func (svc *LedgerService) DefaultDuplicateCriteria() DuplicateCriteria {
	return DuplicateCriteria{
		DateToleranceDays:      svc.Config.DuplicateDateWindowDays,
		AmountTolerancePercent: svc.Config.DuplicateAmountTolerance,
		MatchPayee:             true,
		MatchDescription:       true,
		MatchCategory:          true,
		MatchFund:              true,
		MinMatchTier:           TierPossible,
	}
}

// DuplicateMatch is one scored candidate pair.
type DuplicateMatch struct {
	Transaction1 *models.Transaction `json:"transaction_1"`
	Transaction2 *models.Transaction `json:"transaction_2"`
	Score        int                 `json:"score"`
	Tier         MatchTier           `json:"tier"`
	Reasons      []string            `json:"reasons"`
}

var centFactor = decimal.NewFromInt(100)

// bucketKey groups transactions so only plausible candidates are compared
// pairwise. Cross-bucket duplicates are out of reach on purpose: differing
// amount-cents, month or type can never score high enough to matter.
type bucketKey struct {
	amountCents int64
	yearMonth   string
	txnType     string
}

// FindDuplicates scans the non-deleted ledger for probable duplicate
// entries and returns them ranked by descending score, strongest tier
// first among equals.
func (svc *LedgerService) FindDuplicates(ctx context.Context, criteria DuplicateCriteria) ([]DuplicateMatch, error) {
	if criteria.DateToleranceDays <= 0 {
		criteria.DateToleranceDays = svc.Config.DuplicateDateWindowDays
	}
	if criteria.AmountTolerancePercent <= 0 {
		criteria.AmountTolerancePercent = svc.Config.DuplicateAmountTolerance
	}

	txns, err := svc.ListTransactions(ctx, TransactionFilter{
		StartDate: criteria.StartDate,
		EndDate:   criteria.EndDate,
	})
	if err != nil {
		return nil, err
	}

	dismissed, err := svc.dismissedPairKeys(ctx)
	if err != nil {
		return nil, err
	}

	buckets := make(map[bucketKey][]*models.Transaction)
	for i := range txns {
		txn := &txns[i]
		key := bucketKey{
			amountCents: txn.Amount.Mul(centFactor).Round(0).IntPart(),
			yearMonth:   txn.Date.Format("2006-01"),
			txnType:     txn.Type,
		}
		buckets[key] = append(buckets[key], txn)
	}

	matches := []DuplicateMatch{}
	for _, bucket := range buckets {
		if len(bucket) < 2 {
			continue
		}
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				t1, t2 := bucket[i], bucket[j]
				if _, ok := dismissed[models.PairKey(t1.ID, t2.ID)]; ok {
					continue
				}
				score, reasons, ok := scorePair(t1, t2, criteria)
				if !ok {
					continue
				}
				tier, ok := classifyScore(score)
				if !ok || tier > criteria.MinMatchTier {
					continue
				}
				matches = append(matches, DuplicateMatch{
					Transaction1: t1,
					Transaction2: t2,
					Score:        score,
					Tier:         tier,
					Reasons:      reasons,
				})
			}
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Tier < matches[j].Tier
	})
	return matches, nil
}

// scorePair accumulates weighted similarity points for one unordered pair.
// Returns ok=false when the pair is rejected outright (differing types or
// a date gap beyond the tolerance window).
func scorePair(t1, t2 *models.Transaction, criteria DuplicateCriteria) (score int, reasons []string, ok bool) {
	if t1.Type != t2.Type {
		return 0, nil, false
	}
	gap := dayGap(t1.Date, t2.Date)
	if gap > criteria.DateToleranceDays {
		return 0, nil, false
	}

	if t1.Amount.Equal(t2.Amount) {
		score += 30
		reasons = append(reasons, "identical amount")
	} else if amountWithinTolerance(t1, t2, criteria.AmountTolerancePercent) {
		score += 20
		reasons = append(reasons, fmt.Sprintf("amount within %.1f%%", criteria.AmountTolerancePercent))
	}

	if sameDate(t1.Date, t2.Date) {
		score += 25
		reasons = append(reasons, "same date")
	} else {
		score += 15
		reasons = append(reasons, fmt.Sprintf("dates %d day(s) apart", gap))
	}

	score += 10
	reasons = append(reasons, "same type")

	if criteria.MatchFund && t1.FundID != nil && t2.FundID != nil && *t1.FundID == *t2.FundID {
		score += 15
		reasons = append(reasons, "same fund")
	}

	if criteria.MatchPayee && t1.Payee != "" && t2.Payee != "" {
		if similarity := StringSimilarity(t1.Payee, t2.Payee); similarity >= 0.8 {
			score += int(math.Round(similarity * 10))
			reasons = append(reasons, fmt.Sprintf("payee similarity %.2f", similarity))
		}
	}

	if criteria.MatchDescription && t1.Description != "" && t2.Description != "" {
		if similarity := StringSimilarity(t1.Description, t2.Description); similarity >= 0.7 {
			score += int(math.Round(similarity * 10))
			reasons = append(reasons, fmt.Sprintf("description similarity %.2f", similarity))
		}
	}

	if criteria.MatchCategory && t1.CategoryID == t2.CategoryID {
		score += 5
		reasons = append(reasons, "same category")
	}

	if score > 100 {
		score = 100
	}
	return score, reasons, true
}

func classifyScore(score int) (MatchTier, bool) {
	switch {
	case score >= 80:
		return TierExact, true
	case score >= 50:
		return TierLikely, true
	case score >= 30:
		return TierPossible, true
	}
	return 0, false
}

// StringSimilarity scores two strings in [0,1]: 1.0 for identical after
// case and whitespace normalization, 0.9 when one contains the other,
// otherwise a normalized Levenshtein ratio.
func StringSimilarity(s1, s2 string) float64 {
	n1 := normalizeString(s1)
	n2 := normalizeString(s2)
	if n1 == n2 {
		return 1.0
	}
	if n1 == "" || n2 == "" {
		return 0
	}
	if strings.Contains(n1, n2) || strings.Contains(n2, n1) {
		return 0.9
	}
	longest := len([]rune(n1))
	if l2 := len([]rune(n2)); l2 > longest {
		longest = l2
	}
	return 1 - float64(levenshtein(n1, n2))/float64(longest)
}

func normalizeString(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func levenshtein(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func sameDate(d1, d2 time.Time) bool {
	y1, m1, day1 := d1.Date()
	y2, m2, day2 := d2.Date()
	return y1 == y2 && m1 == m2 && day1 == day2
}

func dayGap(d1, d2 time.Time) int {
	t1 := time.Date(d1.Year(), d1.Month(), d1.Day(), 0, 0, 0, 0, time.UTC)
	t2 := time.Date(d2.Year(), d2.Month(), d2.Day(), 0, 0, 0, 0, time.UTC)
	gap := int(t2.Sub(t1).Hours() / 24)
	if gap < 0 {
		gap = -gap
	}
	return gap
}

func amountWithinTolerance(t1, t2 *models.Transaction, tolerancePercent float64) bool {
	larger := t1.Amount
	if t2.Amount.GreaterThan(larger) {
		larger = t2.Amount
	}
	if larger.IsZero() {
		return true
	}
	diff := t1.Amount.Sub(t2.Amount).Abs()
	ratio, _ := diff.Div(larger).Float64()
	return ratio*100 <= tolerancePercent
}
