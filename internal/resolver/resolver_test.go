package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codegraph-mcp/internal/graph"
	"github.com/dshills/codegraph-mcp/internal/language"
	"github.com/dshills/codegraph-mcp/pkg/types"
)

// buildGraph creates a graph from path -> content, tagging languages by
// extension
func buildGraph(t *testing.T, files map[string]string) *graph.Graph {
	t.Helper()
	g := graph.New("/repo")
	for p, content := range files {
		require.NoError(t, g.AddNode(&graph.Node{
			Path:     p,
			Language: language.Detect(p),
			Content:  content,
		}))
	}
	return g
}

func imports(t *testing.T, g *graph.Graph, p string) []string {
	t.Helper()
	n, ok := g.Node(p)
	require.True(t, ok, "missing node %s", p)
	return n.Imports
}

func TestResolve_ScriptRelative(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"src/a.ts":               "import { b } from './b';\nimport x from './missing';\nimport React from 'react';\n",
		"src/b.ts":               "export const b = 1;\n",
		"src/c.js":               "const util = require('../lib/util');\nconst lazy = import('./widgets');\n",
		"lib/util.jsx":           "export default {}\n",
		"src/widgets/index.ts":   "export * from './button';\n",
		"src/widgets/button.tsx": "export const Button = () => null;\n",
		"src/deep.ts":            "import '../../outside';\n",
	})

	stats := New().Resolve(g)

	assert.Equal(t, []string{"src/b.ts"}, imports(t, g, "src/a.ts"))
	assert.Equal(t, []string{"lib/util.jsx", "src/widgets/index.ts"}, imports(t, g, "src/c.js"))
	assert.Equal(t, []string{"src/widgets/button.tsx"}, imports(t, g, "src/widgets/index.ts"))
	assert.Empty(t, imports(t, g, "src/deep.ts"))

	b, _ := g.Node("src/b.ts")
	assert.Equal(t, []string{"src/a.ts"}, b.ImportedBy)

	assert.Equal(t, 4, stats.Imports)
	// ./missing, ../../outside; bare "react" has no candidates
	assert.Equal(t, 3, stats.Misses)
}

func TestResolve_ScriptCandidateOrder(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"app.js":       "import m from './mod';\n",
		"mod.ts":       "",
		"mod.js":       "",
		"mod/index.js": "",
		"other.js":     "import d from './dir';\n",
		"dir/index.ts": "",
		"dir/index.js": "",
	})

	New().Resolve(g)

	assert.Equal(t, []string{"mod.js"}, imports(t, g, "app.js"))
	assert.Equal(t, []string{"dir/index.js"}, imports(t, g, "other.js"))
}

func TestResolve_ScriptRootIndex(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"main.ts":      "import app from '.';\n",
		"boot.js":      "const app = require('./');\n",
		"index.ts":     "export default {}\n",
		"src/a.ts":     "import x from '.';\n",
		"src/index.ts": "export const x = 1;\n",
	})

	New().Resolve(g)

	assert.Equal(t, []string{"index.ts"}, imports(t, g, "main.ts"))
	assert.Equal(t, []string{"index.ts"}, imports(t, g, "boot.js"))
	assert.Equal(t, []string{"src/index.ts"}, imports(t, g, "src/a.ts"))
	assert.Empty(t, imports(t, g, "index.ts"))
}

func TestResolve_Python(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"app/main.py":              "import app.db\nfrom app.services import billing\nfrom .utils import slugify\nimport os, json\n",
		"app/db.py":                "",
		"app/services/__init__.py": "",
		"app/services/billing.py":  "from ..db import connect\nfrom . import tax\n",
		"app/services/tax.py":      "",
		"app/utils.py":             "",
		"top.py":                   "from ..nowhere import x\n",
	})

	New().Resolve(g)

	assert.Equal(t, []string{"app/db.py", "app/services/__init__.py", "app/utils.py"}, imports(t, g, "app/main.py"))
	assert.Equal(t, []string{"app/db.py", "app/services/tax.py"}, imports(t, g, "app/services/billing.py"))
	assert.Empty(t, imports(t, g, "top.py"))
}

func TestResolve_Python_SubmoduleFallback(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"main.py":        "from pkg import helpers\n",
		"pkg/helpers.py": "",
	})

	New().Resolve(g)

	assert.Equal(t, []string{"pkg/helpers.py"}, imports(t, g, "main.py"))
}

func TestResolve_JVM(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"src/main/java/com/acme/App.java":          "package com.acme;\nimport com.acme.model.User;\nimport com.acme.util.*;\nimport static com.acme.util.Strings.trim;\nimport java.util.List;\n",
		"src/main/java/com/acme/model/User.java":   "package com.acme.model;\n",
		"src/main/java/com/acme/util/Strings.java": "package com.acme.util;\n",
		"src/main/kotlin/Main.kt":                  "import com.acme.svc.Greeter\n",
		"src/main/kotlin/com/acme/svc/Greeter.kt":  "class Greeter\n",
	})

	New().Resolve(g)

	assert.Equal(t, []string{
		"src/main/java/com/acme/model/User.java",
		"src/main/java/com/acme/util/Strings.java",
	}, imports(t, g, "src/main/java/com/acme/App.java"))
	assert.Equal(t, []string{"src/main/kotlin/com/acme/svc/Greeter.kt"}, imports(t, g, "src/main/kotlin/Main.kt"))
}

func TestResolve_Go(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"go.mod":                     "module example.com/shop\n\ngo 1.22\n",
		"cmd/shop/main.go":           "package main\n\nimport (\n\t\"fmt\"\n\n\t\"example.com/shop/internal/cart\"\n)\n",
		"internal/cart/cart.go":      "package cart\n\nimport \"example.com/shop/internal/money\"\n",
		"internal/cart/items.go":     "package cart\n",
		"internal/cart/cart_test.go": "package cart\n",
		"internal/money/money.go":    "package money\n",
	})

	stats := New().Resolve(g)

	assert.Equal(t, []string{"internal/cart/cart.go", "internal/cart/items.go"}, imports(t, g, "cmd/shop/main.go"))
	assert.Equal(t, []string{"internal/money/money.go"}, imports(t, g, "internal/cart/cart.go"))
	assert.Equal(t, 3, stats.Imports)
	assert.Equal(t, 1, stats.Misses) // fmt
}

func TestResolve_CInclude(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"src/main.c":       "#include <stdio.h>\n#include \"util.h\"\n#include \"include/config.h\"\n",
		"src/util.h":       "",
		"include/config.h": "",
	})

	New().Resolve(g)

	assert.Equal(t, []string{"include/config.h", "src/util.h"}, imports(t, g, "src/main.c"))
}

func TestResolve_RubyAndRust(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"lib/app.rb":         "require_relative 'models/user'\nrequire 'json'\n",
		"lib/models/user.rb": "class User; end\n",
		"src/lib.rs":         "pub mod net;\nmod config;\n",
		"src/net.rs":         "mod tcp;\n",
		"src/net/tcp.rs":     "",
		"src/config/mod.rs":  "",
	})

	New().Resolve(g)

	assert.Equal(t, []string{"lib/models/user.rb"}, imports(t, g, "lib/app.rb"))
	assert.Equal(t, []string{"src/config/mod.rs", "src/net.rs"}, imports(t, g, "src/lib.rs"))
	assert.Equal(t, []string{"src/net/tcp.rs"}, imports(t, g, "src/net.rs"))
}

func TestResolve_References(t *testing.T) {
	g := graph.New("/repo")
	add := func(p string, content string, classes ...string) {
		var methods []types.Method
		for _, c := range classes {
			methods = append(methods, types.Method{Name: c, Kind: types.MethodClass, StartLine: 1, EndLine: 1})
		}
		require.NoError(t, g.AddNode(&graph.Node{
			Path: p, Language: language.Detect(p), Content: content, Methods: methods,
		}))
	}

	add("models/user.py", "class User:\n    pass\n", "User")
	add("models/order.py", "class Order:\n    pass\n", "Order")
	add("legacy/order.py", "class Order:\n    pass\n", "Order")
	add("services/signup.py", "def signup():\n    return User()\n")
	add("services/checkout.py", "from models.user import User\n\ndef checkout(o: Order):\n    return User()\n")
	add("README.md", "The User model.\n")
	add("services/users.py", "Username = 'x'\n")

	stats := New().Resolve(g)

	signup, _ := g.Node("services/signup.py")
	assert.Equal(t, []string{"models/user.py"}, signup.References)

	// Already imported, and Order is ambiguous
	checkout, _ := g.Node("services/checkout.py")
	assert.Equal(t, []string{"models/user.py"}, checkout.Imports)
	assert.Empty(t, checkout.References)

	readme, _ := g.Node("README.md")
	assert.Empty(t, readme.References)

	// Whole identifiers only
	users, _ := g.Node("services/users.py")
	assert.Empty(t, users.References)

	user, _ := g.Node("models/user.py")
	assert.Equal(t, []string{"services/signup.py"}, user.ReferencedBy)
	assert.Equal(t, 1, stats.References)
}

func TestResolve_Idempotent(t *testing.T) {
	files := map[string]string{
		"src/a.ts": "import { b } from './b';\nimport { c } from './c';\n",
		"src/b.ts": "import { c } from './c';\n",
		"src/c.ts": "import { a } from './a';\n",
	}

	g1 := buildGraph(t, files)
	New().Resolve(g1)
	g2 := buildGraph(t, files)
	New().Resolve(g2)

	assert.Equal(t, g1.Edges(), g2.Edges())

	// A second pass over the same graph adds nothing
	stats := New().Resolve(g1)
	assert.Equal(t, 0, stats.Imports)
	assert.Equal(t, g2.Edges(), g1.Edges())
}

func TestJoinRel(t *testing.T) {
	tests := []struct {
		dir, spec string
		want      string
		ok        bool
	}{
		{"src", "./b", "src/b", true},
		{"src/a", "../b", "src/b", true},
		{"", "./b", "b", true},
		{"src", "../../b", "", false},
		{"", "..", "", false},
	}
	for _, tt := range tests {
		got, ok := joinRel(tt.dir, tt.spec)
		assert.Equal(t, tt.ok, ok, "%s + %s", tt.dir, tt.spec)
		assert.Equal(t, tt.want, got, "%s + %s", tt.dir, tt.spec)
	}
}
