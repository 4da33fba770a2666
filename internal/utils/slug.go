package utils

import "strings"

// Slugify turns a course title into a stable URL id: lowercase, every run of
// non-alphanumeric characters collapsed to a single hyphen, no leading or
// trailing hyphen. "Learn Java From Scratch!" -> "learn-java-from-scratch".
func Slugify(title string) string {
  var b strings.Builder
  b.Grow(len(title))
  pendingHyphen := false
  for _, r := range strings.ToLower(title) {
    alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
    if !alnum {
      if b.Len() > 0 {
        pendingHyphen = true
      }
      continue
    }
    if pendingHyphen {
      b.WriteByte('-')
      pendingHyphen = false
    }
    b.WriteRune(r)
  }
  return b.String()
}

// IsSlug reports whether s is already in canonical slug form.
func IsSlug(s string) bool {
  return s != "" && s == Slugify(s)
}
