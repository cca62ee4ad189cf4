package core

import "errors"

const (
	// Needs (50%)
	CategoryHousing    Category = "HOUSING"
	CategoryUtilities  Category = "UTILITIES"
	CategoryGroceries  Category = "GROCERIES"
	CategoryTransport  Category = "TRANSPORT"
	CategoryInsurance  Category = "INSURANCE"
	CategoryHealthcare Category = "HEALTHCARE"

	// Wants (30%)
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryRestaurants   Category = "RESTAURANTS"
	CategoryShopping      Category = "SHOPPING"
	CategoryHobbies       Category = "HOBBIES"
	CategoryTravel        Category = "TRAVEL"
	CategoryBeauty        Category = "BEAUTY"

	// Savings (20%)
	CategorySavingsAccount Category = "SAVINGS_ACCOUNT"
	CategoryInvestments    Category = "INVESTMENTS"
	CategoryDebtRepayment  Category = "DEBT_REPAYMENT"

	// Special
	CategoryIncome Category = "INCOME"
	CategoryOther  Category = "OTHER"
)

// Category is a fine-grained transaction category. Every category except
// INCOME maps to exactly one bucket; INCOME grows available funds and is
// outside the 50/30/20 split.
type Category string

var ErrInvalidCategory = errors.New("invalid category")

// bucketByCategory is the total classification table. OTHER is the
// catch-all and counts against WANTS.
var bucketByCategory = map[Category]Bucket{
	CategoryHousing:    Needs,
	CategoryUtilities:  Needs,
	CategoryGroceries:  Needs,
	CategoryTransport:  Needs,
	CategoryInsurance:  Needs,
	CategoryHealthcare: Needs,

	CategoryEntertainment: Wants,
	CategoryRestaurants:   Wants,
	CategoryShopping:      Wants,
	CategoryHobbies:       Wants,
	CategoryTravel:        Wants,
	CategoryBeauty:        Wants,

	CategorySavingsAccount: Savings,
	CategoryInvestments:    Savings,
	CategoryDebtRepayment:  Savings,

	CategoryOther: Wants,
}

// Categories lists every known category in declaration order.
var Categories = []Category{
	CategoryHousing, CategoryUtilities, CategoryGroceries,
	CategoryTransport, CategoryInsurance, CategoryHealthcare,
	CategoryEntertainment, CategoryRestaurants, CategoryShopping,
	CategoryHobbies, CategoryTravel, CategoryBeauty,
	CategorySavingsAccount, CategoryInvestments, CategoryDebtRepayment,
	CategoryIncome, CategoryOther,
}

// Bucket returns the bucket the category counts against. The second
// return is false for INCOME, which belongs to no bucket.
func (c Category) Bucket() (Bucket, bool) {
	b, ok := bucketByCategory[c]
	return b, ok
}

func (c Category) IsValid() bool {
	if c == CategoryIncome {
		return true
	}
	_, ok := bucketByCategory[c]
	return ok
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// CategoriesIn returns every category that counts against the given bucket.
func CategoriesIn(b Bucket) []Category {
	var out []Category
	for _, c := range Categories {
		if got, ok := c.Bucket(); ok && got == b {
			out = append(out, c)
		}
	}
	return out
}
