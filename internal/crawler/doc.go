// Package crawler walks the recipe site: the entry page lists categories, one
// main category lists subcategories, and every category or subcategory page
// lists recipes. Recipe pages are scraped through a bounded queue with retries
// and their results are fanned in to a flat list.
package crawler
