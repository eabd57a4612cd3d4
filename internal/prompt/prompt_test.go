package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEveryCombination(t *testing.T) {
	for _, loc := range Locales {
		for _, tr := range Traditions {
			for _, st := range Styles {
				for _, ln := range Lengths {
					p, err := Build(Options{
						Reflection: "Today was long but I learned a lot.",
						Style:      st,
						Length:     ln,
						Locale:     loc,
						Tradition:  tr,
					})
					require.NoError(t, err, "%s/%s/%s/%s", loc, tr, st, ln)
					assert.Contains(t, p, "Today was long but I learned a lot.")
					assert.Contains(t, p, `"blessingCard"`)
					assert.Contains(t, p, styleInstructions[loc][tr][st])
					assert.Contains(t, p, lengthInstructions[loc][ln])
				}
			}
		}
	}
}

func TestBuildBuddhistAvoidsChristianOpening(t *testing.T) {
	p, err := Build(Options{Reflection: "x", Style: StyleNight, Length: LengthShort, Locale: LocaleEN, Tradition: TraditionBuddhist})
	require.NoError(t, err)
	assert.Contains(t, p, "metta")
	assert.NotContains(t, p, `opens with "Lord,"`)
}

func TestBuildRejectsUnknownValues(t *testing.T) {
	base := Options{Reflection: "x", Style: StyleGentle, Length: LengthShort, Locale: LocaleEN, Tradition: TraditionChristian}

	bad := base
	bad.Locale = "fr"
	_, err := Build(bad)
	assert.Error(t, err)

	bad = base
	bad.Style = "angry"
	_, err = Build(bad)
	assert.Error(t, err)

	bad = base
	bad.Length = "epic"
	_, err = Build(bad)
	assert.Error(t, err)

	bad = base
	bad.Tradition = "stoic"
	_, err = Build(bad)
	assert.Error(t, err)
}

func TestNeedsSafetyResponse(t *testing.T) {
	assert.True(t, NeedsSafetyResponse("Some days I think about SUICIDE."))
	assert.True(t, NeedsSafetyResponse("最近真的不想活了"))
	assert.False(t, NeedsSafetyResponse("I was tired and anxious but grateful."))
}

func TestSafetyResponse(t *testing.T) {
	out := SafetyResponse(LocaleEN, TraditionChristian, StyleGentle)
	require.NotNil(t, out.Title)
	assert.Equal(t, "You Are Not Alone", *out.Title)
	assert.True(t, out.IsSafetyResponse)
	assert.Contains(t, out.Reframe, "988")

	zh := SafetyResponse(LocaleZH, TraditionBuddhist, StyleNight)
	assert.NotContains(t, zh.Prayer, "阿們")
	assert.Contains(t, zh.Prayer, "今夜")

	// unknown values fall back instead of returning an empty reply
	fb := SafetyResponse("fr", "stoic", "loud")
	assert.Equal(t, SafetyResponse(LocaleZH, TraditionChristian, StyleGentle).Prayer, fb.Prayer)
}

func TestSafetyPrayerFollowsStyle(t *testing.T) {
	for _, loc := range Locales {
		for _, tr := range Traditions {
			seen := map[string]Style{}
			for _, st := range Styles {
				p := SafetyResponse(loc, tr, st).Prayer
				require.NotEmpty(t, p, "%s/%s/%s", loc, tr, st)
				prev, dup := seen[p]
				assert.False(t, dup, "%s/%s: %s repeats %s", loc, tr, st, prev)
				seen[p] = st
			}
		}
	}
}
