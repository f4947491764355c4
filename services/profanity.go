package services

import (
	"sort"
	"strings"
	"unicode"
)

var englishProfanity = []string{
	"anal", "anus", "arse", "arsehole", "ass", "asshole", "bastard", "bitch", "bitches",
	"blowjob", "bollocks", "boner", "boob", "boobs", "bullshit", "butthole", "clit", "cock",
	"crap", "cum", "cunt", "damn", "dick", "dickhead", "dildo", "douche", "douchebag", "fag",
	"faggot", "fuck", "fucked", "fucker", "fucking", "goddamn", "handjob", "horny", "jerkoff",
	"jizz", "milf", "motherfucker", "nigga", "nigger", "nude", "orgasm", "penis", "piss",
	"porn", "prick", "pussy", "rape", "scrotum", "sex", "shit", "shitty", "slut", "tits",
	"twat", "vagina", "wank", "wanker", "whore",
}

var filipinoProfanity = []string{
	"putangina", "puta", "tangina", "gago", "tanga", "bobo", "ulol", "tarantado",
	"leche", "peste", "buwisit", "kupal", "kingina", "pokpok", "tamod", "kantot",
	"jakol", "chupa", "supsup", "hindot", "hayop", "inutil", "walang kwenta",
	"punyeta", "pakyu", "lintek", "yawa", "hudas", "demonyo", "salot", "bwisit",
	"lintik", "pucha", "piste", "pakshet", "amputa", "potangina", "potanginamo",
	"tanginamo", "putanginamo", "gagong", "tangong", "bobong", "ulul", "ungas",
	"gunggong", "shunga", "engot", "ogag", "tarantadong", "pakshit", "bwakaw",
	"pukinangina", "bilat", "kepyas", "tite", "burat", "bayag",
	"p*ta", "tang*na", "g*go", "t*nga", "put@", "g@go", "t@nga", "pota",
	// бисайя / себуано
	"atay", "buang", "buwang", "luod", "pisti", "pisteng yawa",
	// илоканский
	"ukinam", "ukininam",
}

var englishVariants = []string{
	"fck", "fuk", "fvck", "sh1t", "sht", "a$$", "a$$hole", "b1tch", "btch",
	"d1ck", "c0ck", "motherf*cker", "f*ck", "sh*t", "b*tch", "a**", "a**hole",
	"dumbass", "dumb@$$", "jackass", "jack@$$", "retard", "retarded",
}

// ProfanityFilter ищет слова из списка с учетом границ слова:
// "classic" не совпадает с "ass", "ass!" совпадает.
type ProfanityFilter struct {
	words [][]rune
}

func NewProfanityFilter(lists ...[]string) *ProfanityFilter {
	seen := make(map[string]bool)
	f := &ProfanityFilter{}
	for _, list := range lists {
		for _, w := range list {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" || seen[w] {
				continue
			}
			seen[w] = true
			f.words = append(f.words, []rune(w))
		}
	}
	return f
}

// DefaultProfanityFilter - английский список, филиппинские языки и варианты написания
var DefaultProfanityFilter = NewProfanityFilter(englishProfanity, filipinoProfanity, englishVariants)

type profanityMatch struct {
	start, end int
	word       string
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (f *ProfanityFilter) matches(text []rune) []profanityMatch {
	lower := make([]rune, len(text))
	for i, r := range text {
		lower[i] = unicode.ToLower(r)
	}

	var found []profanityMatch
	for _, w := range f.words {
		n := len(w)
		for i := 0; i+n <= len(lower); i++ {
			if !runesEqual(lower[i:i+n], w) {
				continue
			}
			if i > 0 && isWordRune(lower[i-1]) && isWordRune(w[0]) {
				continue
			}
			if i+n < len(lower) && isWordRune(lower[i+n]) && isWordRune(w[n-1]) {
				continue
			}
			found = append(found, profanityMatch{start: i, end: i + n, word: string(w)})
		}
	}

	// по позиции, длинные совпадения раньше коротких; вложенные отбрасываются
	sort.Slice(found, func(a, b int) bool {
		if found[a].start != found[b].start {
			return found[a].start < found[b].start
		}
		return found[a].end > found[b].end
	})
	result := found[:0]
	coveredUntil := -1
	for _, m := range found {
		if m.end <= coveredUntil {
			continue
		}
		result = append(result, m)
		if m.end > coveredUntil {
			coveredUntil = m.end
		}
	}
	return result
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Find возвращает найденные слова без повторов в порядке появления
func (f *ProfanityFilter) Find(text string) []string {
	if text == "" {
		return nil
	}
	var words []string
	seen := make(map[string]bool)
	for _, m := range f.matches([]rune(text)) {
		if !seen[m.word] {
			seen[m.word] = true
			words = append(words, m.word)
		}
	}
	return words
}

func (f *ProfanityFilter) Contains(text string) bool {
	return len(f.Find(text)) > 0
}

// Censor заменяет каждый символ найденных слов на mask
func (f *ProfanityFilter) Censor(text string, mask rune) string {
	runes := []rune(text)
	ms := f.matches(runes)
	if len(ms) == 0 {
		return text
	}
	for _, m := range ms {
		for i := m.start; i < m.end; i++ {
			if !unicode.IsSpace(runes[i]) {
				runes[i] = mask
			}
		}
	}
	return string(runes)
}
