package assetpipe

import (
	"bytes"
	"context"
	"io/ioutil"
	"strings"
	"text/template"
	"time"
)

// DateLayout is the yyyy-mm-dd layout used for the banner date
const DateLayout = "2006-01-02"

// BannerData is the input of RenderBanner
type BannerData struct {
	Name string
	Date time.Time
}

type bannerVars struct {
	Name string
	Date string
}

// RenderBanner renders tmpl (text/template syntax) with the package name and the date formatted as yyyy-mm-dd.
// It never consults the clock; the date has to be passed in.
func RenderBanner(tmpl string, data BannerData) (string, error) {
	t, err := template.New("banner").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", configErrorf("invalid banner template: %s", err)
	}

	var buf strings.Builder
	err = t.Execute(&buf, bannerVars{
		Name: data.Name,
		Date: data.Date.Format(DateLayout),
	})
	if err != nil {
		return "", configErrorf("failed to render banner: %s", err)
	}

	return buf.String(), nil
}

// PrependBanner writes the rendered banner in front of the combined output
type PrependBanner struct{}

func (PrependBanner) Kind() StepKind {
	return StepBanner
}

func (PrependBanner) Apply(ctx context.Context, state *buildState) error {
	cfg := state.cfg
	banner, err := RenderBanner(cfg.Banner, BannerData{
		Name: cfg.PackageName,
		Date: state.now,
	})
	if err != nil {
		return err
	}

	content, err := ioutil.ReadFile(cfg.Combined)
	if err != nil {
		return readError(cfg.Combined, err, "failed to read combined output")
	}

	if banner == "" || bytes.HasPrefix(content, []byte(banner)) {
		log(ctx).Debug().Str("path", cfg.Combined).Msg("banner already present")
		return nil
	}

	result := make([]byte, 0, len(banner)+len(content))
	result = append(result, banner...)
	result = append(result, content...)

	err = ioutil.WriteFile(cfg.Combined, result, 0644)
	if err != nil {
		return writeError(cfg.Combined, err, "failed to write banner")
	}

	log(ctx).Info().
		Str("path", cfg.Combined).
		Msgf("prepended banner to %s", cfg.Combined)
	return nil
}
