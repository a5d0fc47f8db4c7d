package settings_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"settings"
)

// propConfig is resolved from two sources with a default fallback; the
// property checks the first-source-wins merge over arbitrary presence
// combinations.
type propConfig struct {
	Value string `default:"fallback"`
}

var propSchema = settings.MustSchema[propConfig](
	settings.WithSources("alpha", "beta"),
	settings.WithServerEnv("prop"),
	settings.WithSingleton(false),
)

func TestPrecedenceProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("first source wins, gaps fall through, default last", prop.ForAll(
		func(inAlpha bool, alphaValue string, inBeta bool, betaValue string) bool {
			ctx := settings.NewContext()

			alpha := newFakeSource()
			if inAlpha {
				alpha.set("prop", "value", alphaValue)
			}
			beta := newFakeSource()
			if inBeta {
				beta.set("prop", "value", betaValue)
			}

			if _, err := ctx.RegisterSource("alpha", func() settings.Source { return alpha }); err != nil {
				return false
			}
			if _, err := ctx.RegisterSource("beta", func() settings.Source { return beta }); err != nil {
				return false
			}

			cfg, err := propSchema.Instance(ctx)
			if err != nil {
				return false
			}

			switch {
			case inAlpha:
				return cfg.Value == alphaValue
			case inBeta:
				return cfg.Value == betaValue
			default:
				return cfg.Value == "fallback"
			}
		},
		gen.Bool(),
		gen.AlphaString(),
		gen.Bool(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
