package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the recipe ASCII art banner with the build version.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Using a subtle gradient-like color scheme (Indigo/Violet)
	s1 := termenv.String("   _ __   ___   ___  _  _ __    ___ ").Foreground(p.Color("#818cf8"))
	s2 := termenv.String("  | '__| / _ \\ / __|(_)| '_ \\  / _ \\").Foreground(p.Color("#a78bfa"))
	s3 := termenv.String("  | |   |  __/| (__ | || |_) ||  __/").Foreground(p.Color("#c084fc"))
	s4 := termenv.String("  |_|    \\___| \\___||_|| .__/  \\___|").Foreground(p.Color("#e879f9"))
	s5 := termenv.String("                       |_|          ").Foreground(p.Color("#f472b6"))
	v := termenv.String("  " + strings.TrimSpace(version)).Foreground(p.Color("#fb7185"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(v)
	fmt.Println()
}
