package domain

// Severity grades a finding for display.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// FullyOptimizedMessage is the message of the single synthetic finding returned
// when no rule fires. It is a distinguishable terminal state, not an empty list,
// so consumers can render the success case.
const FullyOptimizedMessage = "Product is fully optimized."

// Finding is one failed quality rule for a product. The synthetic
// fully-optimized finding carries only the message.
type Finding struct {
	Issue    string   `json:"issue,omitempty" bson:"issue,omitempty"`
	Severity Severity `json:"severity,omitempty" bson:"severity,omitempty"`
	Message  string   `json:"message" bson:"message"`
}

// Synthetic reports whether the finding is the fully-optimized marker.
func (f Finding) Synthetic() bool {
	return f.Issue == "" && f.Severity == ""
}

// IssueCounts holds the per-category counters of one product analysis. Each
// counter is 0 or 1 per product; shop-level totals are sums over products.
// The camelCase key set is canonical end to end, including mongo documents.
type IssueCounts struct {
	SeoTitle        int `json:"seoTitle" bson:"seoTitle"`
	SeoDescription  int `json:"seoDescription" bson:"seoDescription"`
	FeaturedMedia   int `json:"featuredMedia" bson:"featuredMedia"`
	Title           int `json:"title" bson:"title"`
	Variants        int `json:"variants" bson:"variants"`
	PublishedAt     int `json:"publishedAt" bson:"publishedAt"`
	Tags            int `json:"tags" bson:"tags"`
	Collections     int `json:"collections" bson:"collections"`
	ProductType     int `json:"productType" bson:"productType"`
	Vendor          int `json:"vendor" bson:"vendor"`
	Weight          int `json:"weight" bson:"weight"`
	TracksInventory int `json:"tracksInventory" bson:"tracksInventory"`
}

// Add accumulates another product's counters into c.
func (c *IssueCounts) Add(o IssueCounts) {
	c.SeoTitle += o.SeoTitle
	c.SeoDescription += o.SeoDescription
	c.FeaturedMedia += o.FeaturedMedia
	c.Title += o.Title
	c.Variants += o.Variants
	c.PublishedAt += o.PublishedAt
	c.Tags += o.Tags
	c.Collections += o.Collections
	c.ProductType += o.ProductType
	c.Vendor += o.Vendor
	c.Weight += o.Weight
	c.TracksInventory += o.TracksInventory
}

// Total returns the sum of all counters.
func (c IssueCounts) Total() int {
	return c.SeoTitle + c.SeoDescription + c.FeaturedMedia + c.Title +
		c.Variants + c.PublishedAt + c.Tags + c.Collections +
		c.ProductType + c.Vendor + c.Weight + c.TracksInventory
}

// Analysis is the result of evaluating one product snapshot.
type Analysis struct {
	Findings    []Finding   `json:"findings"`
	IssueCounts IssueCounts `json:"issueCounts"`
}

// FindingCount returns the number of real (non-synthetic) findings.
func (a Analysis) FindingCount() int {
	n := 0
	for _, f := range a.Findings {
		if !f.Synthetic() {
			n++
		}
	}
	return n
}
