package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host            string        `env:"HOST,default=0.0.0.0"`
	Port            int           `env:"PORT,default=8080"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath   string        `env:"BLUGE_FILEPATH,required=true"`
	LogLevel        string        `env:"LOG_LEVEL,required=true"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT,default=1s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	StatsInterval   time.Duration `env:"STATS_INTERVAL,default=30s"`
	MinContrast     float64       `env:"MIN_CONTRAST,default=4.5"`
	SearchLimit     int           `env:"SEARCH_LIMIT,default=10"`
	CensoredWords   string        `env:"CENSORED_WORDS"`
	CensoredChar    string        `env:"CENSORED_CHARACTER,default=*"`
}

// CensoredWordList splits the comma-separated CENSORED_WORDS value.
// An empty value disables moderation entirely.
func (c Config) CensoredWordList() []string {
	if strings.TrimSpace(c.CensoredWords) == "" {
		return nil
	}
	return strings.Split(c.CensoredWords, ",")
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CENSORED_CHARACTER must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
