// Copyright 2025 Sonia Keys
// License: MIT

// Command eclipsemap computes the geographic geometry of a solar eclipse
// and writes it as KML and/or an equirectangular PNG map.
//
// The input time must be near greatest eclipse; the eclipse itself is not
// searched for.
package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log"
	"os"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"
	"github.com/spf13/cobra"

	"github.com/soniakeys/eclipsemap"
	"github.com/soniakeys/eclipsemap/besselian"
	"github.com/soniakeys/eclipsemap/deltat"
	"github.com/soniakeys/eclipsemap/kmlmap"
	"github.com/soniakeys/eclipsemap/pngmap"
)

var (
	flagJD      float64
	flagDate    string
	flagKML     string
	flagPNG     string
	flagBaseMap string
	flagWidth   int
	flagVerbose bool
)

func main() {
	cmd := &cobra.Command{
		Use:   "eclipsemap",
		Short: "Map the geographic geometry of a solar eclipse",
		Long: `Eclipsemap computes the visibility curves of a solar eclipse —
penumbra and umbra limits, rise/set curves, the central line, umbral
shadow outlines — for the eclipse nearest the given instant of greatest
eclipse, and writes them as KML and/or a PNG world map.`,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	f := cmd.Flags()
	f.Float64Var(&flagJD, "jd", 0, "Julian ephemeris date (TT) near greatest eclipse")
	f.StringVar(&flagDate, "date", "", `TT date-time near greatest eclipse, "2006-01-02 15:04:05"`)
	f.StringVar(&flagKML, "kml", "", "write KML to this file")
	f.StringVar(&flagPNG, "png", "", "write a PNG map to this file")
	f.StringVar(&flagBaseMap, "map", "", "equirectangular base map image for --png")
	f.IntVar(&flagWidth, "width", 2048, "PNG width when no base map is given")
	f.BoolVar(&flagVerbose, "v", false, "log numerical warnings")
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	jd := flagJD
	if flagDate != "" {
		t, err := time.Parse("2006-01-02 15:04:05", flagDate)
		if err != nil {
			return err
		}
		jd = julian.TimeToJD(t)
	}
	if jd == 0 {
		return fmt.Errorf("one of --jd or --date is required")
	}

	c := eclipsemap.New(besselian.MeeusEphemeris{})
	if flagVerbose {
		c.Warn = log.Printf
	}
	data, err := c.GenerateMap(jd)
	if err != nil {
		return err
	}

	printPoint := func(name string, p eclipsemap.GeoTimePoint) {
		if p.JD < 0 {
			return
		}
		ut := p.JD - deltat.EspenakMeeus(p.JD).Day()
		fmt.Printf("%-28s %s  %v  %v\n", name,
			julian.JDToTime(ut).UTC().Format("2006-01-02 15:04:05 UTC"),
			sexa.FmtAngle(unit.AngleFromDeg(p.Lat)),
			sexa.FmtAngle(unit.AngleFromDeg(p.Lon)))
	}
	fmt.Println("Eclipse type:", data.Type)
	printPoint("First contact with Earth", data.FirstContactWithEarth)
	printPoint("Central eclipse begins", data.CentralEclipseStart)
	printPoint("Greatest eclipse", data.GreatestEclipse)
	printPoint("Central eclipse ends", data.CentralEclipseEnd)
	printPoint("Last contact with Earth", data.LastContactWithEarth)

	if flagKML != "" {
		f, err := os.Create(flagKML)
		if err != nil {
			return err
		}
		name := "Solar Eclipse " + julian.JDToTime(jd).UTC().Format("2006-01-02")
		if err := kmlmap.Write(f, data, name); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	if flagPNG != "" {
		var base image.Image
		if flagBaseMap != "" {
			f, err := os.Open(flagBaseMap)
			if err != nil {
				return err
			}
			base, _, err = image.Decode(f)
			f.Close()
			if err != nil {
				return err
			}
		}
		img := pngmap.Render(data, base, flagWidth)
		f, err := os.Create(flagPNG)
		if err != nil {
			return err
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
