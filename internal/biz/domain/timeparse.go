package domain

import (
	"regexp"
	"strconv"
	"time"
	_ "time/tzdata" // Europe/Amsterdam must resolve on hosts without zoneinfo
)

// DefaultAlarmZone is the zone offset-qualified alarm times are converted into
const DefaultAlarmZone = "Europe/Amsterdam"

type alarmForm int

const (
	formOffset24 alarmForm = iota // hh:mm +hhmm
	formOffset12                  // hh:mm AM|PM +hhmm
	formMeridiem                  // hh:mm AM|PM
	formBare                      // hh:mm
)

const (
	hour24    = `([01]?[0-9]|2[0-3]):([0-5][0-9])`
	hour12    = `(0?[1-9]|1[0-2]):([0-5][0-9])`
	utcOffset = `([+-])([01][0-9]|2[0-3])([0-5][0-9])`
	amPm      = `(AM|PM)`
	spacing   = ` `
)

type alarmPattern struct {
	form alarmForm
	re   *regexp.Regexp
}

// AlarmParser extracts an alarm time from free text.
// Patterns are tried in fixed priority order and the first hit wins.
type AlarmParser struct {
	patterns []alarmPattern
	loc      *time.Location
	now      func() time.Time
}

// ParserOption configures an AlarmParser
type ParserOption func(*AlarmParser)

// WithKeyword requires the time to follow the keyword and a single space,
// e.g. "alarm 14:00". An empty keyword matches a bare time anywhere.
func WithKeyword(keyword string) ParserOption {
	return func(p *AlarmParser) {
		p.patterns = compileAlarmPatterns(keyword)
	}
}

// WithLocation sets the target zone for offset-qualified times
func WithLocation(loc *time.Location) ParserOption {
	return func(p *AlarmParser) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithNow sets the reference clock; its UTC date is the base date for
// offset conversion, so the target zone's DST rules for that day apply.
func WithNow(now func() time.Time) ParserOption {
	return func(p *AlarmParser) {
		if now != nil {
			p.now = now
		}
	}
}

// NewAlarmParser creates a parser converting into Europe/Amsterdam
func NewAlarmParser(opts ...ParserOption) *AlarmParser {
	p := &AlarmParser{
		patterns: compileAlarmPatterns(""),
		loc:      mustLoadLocation(DefaultAlarmZone),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewAlarmParser()

// ParseAlarm parses text with the default parser
func ParseAlarm(text string) (AlarmTime, bool) {
	return defaultParser.Parse(text)
}

// Parse returns the alarm time from the first matching pattern.
// Unparseable text is not an error: ok is false.
func (p *AlarmParser) Parse(text string) (AlarmTime, bool) {
	for _, pat := range p.patterns {
		m := pat.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		hour, minute := atoi(m[1]), atoi(m[2])

		switch pat.form {
		case formOffset24:
			return p.fromOffset(hour, minute, m[3], atoi(m[4]), atoi(m[5])), true
		case formOffset12:
			hour = to24(hour, m[3])
			return p.fromOffset(hour, minute, m[4], atoi(m[5]), atoi(m[6])), true
		case formMeridiem:
			return AlarmTime{Hour: to24(hour, m[3]), Minute: minute}, true
		default:
			return AlarmTime{Hour: hour, Minute: minute}, true
		}
	}
	return AlarmTime{}, false
}

// Location returns the target zone
func (p *AlarmParser) Location() *time.Location {
	return p.loc
}

// fromOffset treats hour:minute as a time in the stated UTC offset and
// converts it into the parser's zone.
func (p *AlarmParser) fromOffset(hour, minute int, sign string, offHour, offMinute int) AlarmTime {
	today := p.now().UTC()
	base := time.Date(today.Year(), today.Month(), today.Day(), hour, minute, 0, 0, time.UTC)

	off := time.Duration(offHour)*time.Hour + time.Duration(offMinute)*time.Minute
	if sign == "-" {
		off = -off
	}
	local := base.Add(-off).In(p.loc)
	return AlarmTime{Hour: local.Hour(), Minute: local.Minute()}
}

func to24(hour int, meridiem string) int {
	switch {
	case meridiem == "AM" && hour == 12:
		return 0
	case meridiem == "PM" && hour < 12:
		return hour + 12
	}
	return hour
}

func compileAlarmPatterns(keyword string) []alarmPattern {
	prefix := ""
	if keyword != "" {
		prefix = regexp.QuoteMeta(keyword) + spacing
	}
	return []alarmPattern{
		{formOffset24, regexp.MustCompile(prefix + hour24 + spacing + utcOffset)},
		{formOffset12, regexp.MustCompile(prefix + hour12 + spacing + amPm + spacing + utcOffset)},
		{formMeridiem, regexp.MustCompile(prefix + hour12 + spacing + amPm)},
		{formBare, regexp.MustCompile(prefix + hour24)},
	}
}

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic("load location " + name + ": " + err.Error())
	}
	return loc
}

// atoi is only called on regexp-validated digit groups
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
