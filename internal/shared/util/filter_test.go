package util

import (
	"testing"
)

func TestPathFilter(t *testing.T) {
	t.Parallel()

	f, err := NewPathFilter(
		[]string{"node_modules", ".*"},
		[]string{"*.min.js", "vendor/**"},
		[]string{".js", ".ts"},
		false,
		100,
	)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name     string
		path     string
		rel      string
		size     int64
		expected bool
	}{
		{name: "Source", path: "/p/src/app.js", rel: "src/app.js", size: 10, expected: true},
		{name: "Extension", path: "/p/src/app.py", rel: "src/app.py", size: 10, expected: false},
		{name: "Minified", path: "/p/src/app.min.js", rel: "src/app.min.js", size: 10, expected: false},
		{name: "Vendor", path: "/p/vendor/lib/x.js", rel: "vendor/lib/x.js", size: 10, expected: false},
		{name: "Declaration", path: "/p/types/x.d.ts", rel: "types/x.d.ts", size: 10, expected: false},
		{name: "TestSuffix", path: "/p/src/app.test.ts", rel: "src/app.test.ts", size: 10, expected: false},
		{name: "TestsDir", path: "/p/src/__tests__/a.js", rel: "src/__tests__/a.js", size: 10, expected: false},
		{name: "ExcludedDir", path: "/p/node_modules/x/a.js", rel: "node_modules/x/a.js", size: 10, expected: false},
		{name: "TooLarge", path: "/p/src/big.js", rel: "src/big.js", size: 101, expected: false},
		{name: "UnknownSize", path: "/p/src/big.js", rel: "src/big.js", size: -1, expected: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := f.Match(tc.path, tc.rel, tc.size); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}

	if !f.SkipDir("/p/.git") || !f.SkipDir("/p/node_modules") || f.SkipDir("/p/src") {
		t.Fatal("unexpected SkipDir result")
	}
	if !f.SkipDir("/p/src/__tests__") {
		t.Fatal("expected __tests__ to be skipped when tests are excluded")
	}
}
