package types

import "fmt"

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return Level(s), nil
	case "":
		return LevelBeginner, nil
	default:
		return "", fmt.Errorf("unknown level %q", s)
	}
}
