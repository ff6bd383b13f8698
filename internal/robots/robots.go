package robots

import (
	"bufio"
	"strings"
)

// Rules is the parsed form of a robots.txt file: Disallow paths grouped by the
// user-agent token they were declared under. The structure is immutable once
// parsed; evaluation happens separately in Allowed.
type Rules struct {
	Disallow map[string][]string
}

// Parse folds the robots.txt lines into Rules. Only User-agent and Disallow
// directives are honored. Allow overrides and most-specific-path precedence
// are intentionally not implemented: matching stays a linear prefix scan, so
// the result can over- or under-block relative to the full robots standard.
func Parse(text string) Rules {
	rules := Rules{Disallow: make(map[string][]string)}
	agent := "*"
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:colon]))
		val := strings.TrimSpace(line[colon+1:])
		switch key {
		case "user-agent", "useragent":
			agent = strings.ToLower(val)
		case "disallow":
			if val != "" {
				rules.Disallow[agent] = append(rules.Disallow[agent], val)
			}
		}
	}
	return rules
}

// Allowed reports whether the given path may be fetched by userAgent. A
// Disallow directive applies when it was declared under "*" or under an agent
// token that occurs as a substring of userAgent. The path is denied when any
// applicable directive is "/" or is a prefix of the path.
func Allowed(rules Rules, userAgent, path string) bool {
	ua := strings.ToLower(userAgent)
	for agent, paths := range rules.Disallow {
		if agent != "*" && !strings.Contains(ua, agent) {
			continue
		}
		for _, p := range paths {
			if p == "/" || strings.HasPrefix(path, p) {
				return false
			}
		}
	}
	return true
}
