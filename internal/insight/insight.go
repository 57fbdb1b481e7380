// Package insight derives one-line, deterministic insights from a dataset.
//
// Average is the sentence the analysis endpoint returns. TopContributor is the chart caption
// the dashboard shows. Both read the same category/value column pair.
package insight

import (
	"fmt"
	"math"
	"strconv"

	"github.com/KaramelBytes/insightloom/internal/analysis"
)

// Fallback is returned by Average when no valid column pair was chosen.
const Fallback = "The dataset looks clean and ready for deeper analysis."

// CaptionFallback is the caption shown when TopContributor cannot be computed.
const CaptionFallback = "Unable to generate insight for this chart."

// ComputationError reports an arithmetic failure on a valid column pair.
type ComputationError struct {
	Column string
	Reason string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("column '%s' %s", e.Column, e.Reason)
}

// Average returns the mean of valueColumn and the most frequent value of column. If either
// name is empty or not a column of ds it returns Fallback.
func Average(ds *analysis.Dataset, column, valueColumn string) (string, error) {
	if column == "" || valueColumn == "" || !ds.Has(column) || !ds.Has(valueColumn) {
		return Fallback, nil
	}
	mean, err := Mean(ds, valueColumn)
	if err != nil {
		return "", err
	}
	mode, err := Mode(ds, column)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("The average %s is %s, and key category is '%s'.", valueColumn, decimal(mean, 2), mode), nil
}

// Mean averages the present values of a numeric column.
func Mean(ds *analysis.Dataset, name string) (float64, error) {
	vals, err := numeric(ds, name)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals)), nil
}

// Mode returns the most frequent present value of a column. Ties resolve to the smallest value.
func Mode(ds *analysis.Dataset, name string) (string, error) {
	c, ok := ds.Column(name)
	if !ok {
		return "", &ComputationError{Column: name, Reason: "does not exist"}
	}
	freq := analysis.Frequencies(c)
	if len(freq) == 0 {
		return "", &ComputationError{Column: name, Reason: "has no values"}
	}
	return freq[0].Value, nil
}

// TopContributor describes the row with the largest value and its share of the column total.
func TopContributor(ds *analysis.Dataset, column, valueColumn string) (string, error) {
	cat, ok := ds.Column(column)
	if !ok {
		return "", &ComputationError{Column: column, Reason: "does not exist"}
	}
	val, ok := ds.Column(valueColumn)
	if !ok {
		return "", &ComputationError{Column: valueColumn, Reason: "does not exist"}
	}
	if val.Kind != analysis.KindNumeric {
		return "", &ComputationError{Column: valueColumn, Reason: "is not numeric"}
	}
	top := -1
	var total float64
	for i, v := range val.Nums {
		if math.IsNaN(v) {
			continue
		}
		total += v
		if top < 0 || v > val.Nums[top] {
			top = i
		}
	}
	if top < 0 {
		return "", &ComputationError{Column: valueColumn, Reason: "has no values"}
	}
	if total == 0 {
		return "", &ComputationError{Column: valueColumn, Reason: "sums to zero"}
	}
	topValue := val.Nums[top]
	pct := topValue / total * 100
	return fmt.Sprintf("The highest %s is from '%s' with value %s, contributing %s%% of total.",
		valueColumn, cat.Raw[top], decimal(topValue, 2), decimal(pct, 1)), nil
}

// decimal formats v with prec decimals; non-finite values print as inf, -inf and nan.
func decimal(v float64, prec int) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func numeric(ds *analysis.Dataset, name string) ([]float64, error) {
	c, ok := ds.Column(name)
	if !ok {
		return nil, &ComputationError{Column: name, Reason: "does not exist"}
	}
	if c.Kind != analysis.KindNumeric {
		return nil, &ComputationError{Column: name, Reason: "is not numeric"}
	}
	vals := c.Values()
	if len(vals) == 0 {
		return nil, &ComputationError{Column: name, Reason: "has no values"}
	}
	return vals, nil
}
