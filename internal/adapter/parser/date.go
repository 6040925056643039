package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var ErrUnparsableDate = errors.New("unparsable date")

// Самый ранний допустимый год результата dateparse.
const minPlausibleYear = 1900

// Немецкие названия месяцев и сокращения, заменяемые английскими целыми словами.
var germanMonths = map[string]string{
	"januar":    "january",
	"jänner":    "january",
	"jan":       "january",
	"februar":   "february",
	"feb":       "february",
	"märz":      "march",
	"maerz":     "march",
	"mär":       "march",
	"mrz":       "march",
	"april":     "april",
	"apr":       "april",
	"mai":       "may",
	"juni":      "june",
	"jun":       "june",
	"juli":      "july",
	"jul":       "july",
	"august":    "august",
	"aug":       "august",
	"september": "september",
	"sep":       "september",
	"sept":      "september",
	"oktober":   "october",
	"okt":       "october",
	"november":  "november",
	"nov":       "november",
	"dezember":  "december",
	"dez":       "december",
}

var englishMonths = func() map[string]time.Month {
	m := make(map[string]time.Month, 12)
	for i := time.January; i <= time.December; i++ {
		m[strings.ToLower(i.String())] = i
	}
	return m
}()

const (
	monthNames = `(january|february|march|april|may|june|july|august|september|october|november|december)`
	// необязательное время после даты: "14:30", ", 14:30:05", "um 14:30"
	timeSuffix = `(?:,?\s*(?:um\s+)?(\d{1,2}):(\d{2})(?::(\d{2}))?)?`
)

var (
	wordRegex            = regexp.MustCompile(`\p{L}+`)
	numericDateRegex     = regexp.MustCompile(`(?:^|[^\d])(\d{1,2})\.\s?(\d{1,2})\.\s?(\d{4}|\d{2})` + timeSuffix + `(?:[^\d]|$)`)
	monthWordDateRegex   = regexp.MustCompile(`(?:^|[^\d])(\d{1,2})\.?\s*` + monthNames + `\.?,?\s*(\d{4})` + timeSuffix + `(?:[^\d]|$)`)
	numericDayMonthRegex = regexp.MustCompile(`(?:^|[^\d])(\d{1,2})\.\s?(\d{1,2})\.` + timeSuffix + `(?:[^\d]|$)`)
	wordDayMonthRegex    = regexp.MustCompile(`(?:^|[^\d])(\d{1,2})\.?\s*` + monthNames + `\.?` + timeSuffix + `(?:[^\p{L}\d]|$)`)
)

// ParseDate разбирает дату относительно текущего момента; см. ParseDateAt.
func ParseDate(text string) (time.Time, error) {
	return ParseDateAt(text, time.Now())
}

// ParseDateAt разбирает дату из произвольного текста. ref - момент, относительно
// которого достраивается год (обычно месяц страницы списка).
//
// Порядок разбора:
//  1. текст нормализуется (NFC, нижний регистр), немецкие месяцы заменяются английскими;
//  2. числовая дата "Д.М.ГГГГ" или "Д.М.ГГ" (ГГ означает 20ГГ) в любом месте текста;
//  3. дата с названием месяца "Д[.] Месяц ГГГГ" в любом месте текста;
//  4. дата без года "Д.М." или "Д[.] Месяц": год берется из ref, а если дата
//     получается позже ref больше чем на месяц, из предыдущего года;
//  5. dateparse по всему тексту с приоритетом дня перед месяцем. Результат с годом
//     раньше 1900 или позже ref больше чем на год отбрасывается.
//
// В шагах 2-4 за датой может идти время "ЧЧ:ММ[:СС]", оно сохраняется.
// Без указания времени результатом будет полночь UTC.
func ParseDateAt(text string, ref time.Time) (time.Time, error) {
	normalized := normalizeDateText(text)
	if normalized == "" {
		return time.Time{}, fmt.Errorf("%w: empty text", ErrUnparsableDate)
	}
	if m := numericDateRegex.FindStringSubmatch(normalized); m != nil {
		month, _ := strconv.Atoi(m[2])
		if t, err := buildDate(fullYear(m[3]), month, m[1], m[4:7]); err == nil {
			return t, nil
		}
	}
	if m := monthWordDateRegex.FindStringSubmatch(normalized); m != nil {
		year, _ := strconv.Atoi(m[3])
		if t, err := buildDate(year, int(englishMonths[m[2]]), m[1], m[4:7]); err == nil {
			return t, nil
		}
	}
	if m := numericDayMonthRegex.FindStringSubmatch(normalized); m != nil {
		month, _ := strconv.Atoi(m[2])
		if t, err := buildDayMonth(month, m[1], m[3:6], ref); err == nil {
			return t, nil
		}
	}
	if m := wordDayMonthRegex.FindStringSubmatch(normalized); m != nil {
		if t, err := buildDayMonth(int(englishMonths[m[2]]), m[1], m[3:6], ref); err == nil {
			return t, nil
		}
	}
	t, err := dateparse.ParseIn(normalized, time.UTC, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrUnparsableDate, text, err)
	}
	if !plausible(t, ref) {
		return time.Time{}, fmt.Errorf("%w: %q: implausible date %s", ErrUnparsableDate, text, t.Format(time.DateOnly))
	}
	return t, nil
}

func normalizeDateText(text string) string {
	s := cases.Lower(language.German).String(norm.NFC.String(text))
	s = wordRegex.ReplaceAllStringFunc(s, func(word string) string {
		if en, ok := germanMonths[word]; ok {
			return en
		}
		return word
	})
	return strings.Join(strings.Fields(s), " ")
}

func fullYear(s string) int {
	year, _ := strconv.Atoi(s)
	if len(s) == 2 {
		year += 2000
	}
	return year
}

// buildDayMonth достраивает год для даты без года по ref.
func buildDayMonth(month int, dayStr string, clock []string, ref time.Time) (time.Time, error) {
	ref = ref.UTC()
	t, err := buildDate(ref.Year(), month, dayStr, clock)
	if err != nil {
		return time.Time{}, err
	}
	if t.After(ref.AddDate(0, 1, 0)) {
		return buildDate(ref.Year()-1, month, dayStr, clock)
	}
	return t, nil
}

// buildDate собирает дату в UTC. clock - группы часа, минут и секунд, пустые при отсутствии времени.
func buildDate(year, month int, dayStr string, clock []string) (time.Time, error) {
	day, _ := strconv.Atoi(dayStr)
	var hour, minute, sec int
	if clock[0] != "" {
		hour, _ = strconv.Atoi(clock[0])
		minute, _ = strconv.Atoi(clock[1])
		if clock[2] != "" {
			sec, _ = strconv.Atoi(clock[2])
		}
		if hour > 23 || minute > 59 || sec > 59 {
			return time.Time{}, fmt.Errorf("%w: invalid time %s:%s", ErrUnparsableDate, clock[0], clock[1])
		}
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC)
	// time.Date нормализует 31.02 в 02.03, такие даты отбрасываются
	if month < 1 || month > 12 || t.Day() != day || int(t.Month()) != month {
		return time.Time{}, fmt.Errorf("%w: invalid day or month %d.%d", ErrUnparsableDate, day, month)
	}
	return t, nil
}

func plausible(t, ref time.Time) bool {
	return t.Year() >= minPlausibleYear && !t.After(ref.AddDate(1, 0, 0))
}
