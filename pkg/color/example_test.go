package color_test

import (
	"fmt"

	"github.com/matzehuels/leaderline/pkg/color"
)

func ExampleContrasting() {
	for _, c := range []string{"#ff7f50", "navy", "rgba(0, 0, 0, 0.8)"} {
		out, _ := color.Contrasting(c)
		fmt.Println(c, "->", out)
	}
	// Output:
	// #ff7f50 -> #000000
	// navy -> #ffffff
	// rgba(0, 0, 0, 0.8) -> #ffffff
}
