// Package recipe holds the recipe domain model: the Recipe record, its nutrition
// facts and star rating, the per-page Result produced by a crawl, and the ranking
// used to pick the five-star recipe with the best protein to net carb ratio.
package recipe
