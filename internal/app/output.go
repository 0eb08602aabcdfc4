package app

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/recipe"
)

// Printer writes recipes for people to read.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter writes to w, styling names when color is set.
func NewPrinter(w io.Writer, color bool) *Printer {
	return &Printer{w: w, color: color}
}

// Recipe prints one recipe with its nutrition facts.
func (p *Printer) Recipe(r recipe.Recipe) error {
	_, err := io.WriteString(p.w, FormatRecipe(r, p.color))
	return err
}

// Table prints the five-star recipes, best ratio last.
func (p *Printer) Table(recipes []recipe.Recipe) {
	ranked := recipe.RankFiveStar(recipes)

	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Name", "Protein", "Net Carbs", "Ratio", "URL"})
	for i, r := range ranked {
		t.AppendRow(table.Row{
			i + 1,
			r.Name,
			grams(r.NutritionFacts.GramsOfProtein),
			grams(r.NutritionFacts.GramsOfNetCarbs),
			ratio(recipe.ProteinToNetCarbRatio(r)),
			r.URL,
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d of %d recipes", len(ranked), len(recipes))})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.Render()
}

// FormatRecipe renders r the way the best command prints it.
func FormatRecipe(r recipe.Recipe, color bool) string {
	name := r.Name
	if color {
		name = text.Colors{text.Bold, text.FgBlue}.Sprint(name)
	}
	facts := r.NutritionFacts
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", name)
	fmt.Fprintf(&b, "URL: %s\n", r.URL)
	b.WriteString("Nutrition Facts:\n")
	fmt.Fprintf(&b, "  - %s Calories\n", number(facts.Calories))
	fmt.Fprintf(&b, "  - %s Carbs\n", grams(facts.GramsOfCarbohydrate))
	fmt.Fprintf(&b, "  - %s Fat\n", grams(facts.GramsOfFat))
	fmt.Fprintf(&b, "  - %s Dietary Fiber\n", grams(facts.GramsOfFiber))
	fmt.Fprintf(&b, "  - %s Net Carbs\n", grams(facts.GramsOfNetCarbs))
	fmt.Fprintf(&b, "  - %s Protein\n", grams(facts.GramsOfProtein))
	return b.String()
}

// grams prints zero as a trace amount.
func grams(n float64) string {
	if n == 0 {
		return "Trace"
	}
	return number(n) + "g"
}

func number(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func ratio(v float64) string {
	if math.IsInf(v, 1) {
		return "∞"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
