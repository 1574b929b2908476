package resolve

import "github.com/pynder/pynder/syntax"

// The import-binding logic below is factored out of the main
// walker switch, mirroring how go.starlark.net's resolve package keeps
// load-statement handling in its own section of the file rather than
// inline in the statement dispatch.

// bindImportStmt binds "import a.b.c [as name], d.e [as name2]".
func (b *binder) bindImportStmt(stmt *syntax.ImportStmt) {
	for _, alias := range stmt.Names {
		b.bindOneImportAs(stmt, alias)
	}
}

func (b *binder) bindOneImportAs(stmt *syntax.ImportStmt, alias *syntax.Alias) {
	parts := splitDotted(alias.Name)
	boundName := parts[0]
	if alias.AsName != nil {
		boundName = alias.AsName.Name
	}

	sym, existed := b.scope.LookUp(boundName)
	if !existed {
		sym = b.scope.AddSymbol(b.syms, boundName, 0)
		b.rec.SymbolCreated()
	}

	firstPart := parts[0]
	var decl *AliasDeclaration
	if existed && alias.AsName == nil {
		// Multiple bare "import a.x" / "import a.y" statements extend the
		// same symbol's loader-actions tree instead of replacing it.
		for _, d := range sym.Declarations() {
			if ad, ok := d.(*AliasDeclaration); ok && ad.FirstNamePart == firstPart && !ad.UsesLocalName {
				decl = ad
				break
			}
		}
	}
	if decl == nil {
		decl = &AliasDeclaration{
			Rng:              syntax.NodeRange(identOrAlias(alias)),
			FirstNamePart:    firstPart,
			UsesLocalName:    alias.AsName != nil,
			ImplicitImports:  make(map[string]*ModuleLoaderActions),
		}
		sym.addDeclaration(decl)
	}

	resolved, info := b.resolveImport(alias.Name)
	decl.Path = resolved
	b.threadImplicitImports(decl, parts[1:], info)

	if b.fi.IsStubFile && alias.AsName == nil {
		sym.Flags |= ExternallyHidden
	}

	b.current = b.flow.assignment(b.current, identOrAlias(alias), sym.ID(), false)
}

// threadImplicitImports builds the nested ModuleLoaderActions tree for
// the dotted parts after the bound name, recording a resolved path at
// each depth when the import-info side-channel supplied one.
func (b *binder) threadImplicitImports(decl *AliasDeclaration, rest []string, info *ImportInfo) {
	cur := decl.ImplicitImports
	for i, part := range rest {
		action, ok := cur[part]
		if !ok {
			action = newModuleLoaderActions()
			cur[part] = action
		}
		// rest omits the bound first part, so depth i+1 of the dotted
		// name matches ResolvedPaths[i+1].
		if info != nil && i+1 < len(info.ResolvedPaths) {
			action.Path = info.ResolvedPaths[i+1]
		}
		cur = action.Submodules
	}
}

// bindImportFromStmt binds "from [dots]module import name [as x], ..."
// and the wildcard form "from module import *".
func (b *binder) bindImportFromStmt(stmt *syntax.ImportFromStmt) {
	if stmt.IsWildcard {
		b.bindWildcardImport(stmt)
		return
	}

	if stmt.Level == 1 && stmt.Module == "" {
		b.bindImplicitPackageSubmodule(stmt)
	}

	_, info := b.resolveImport(stmt.Module)
	for _, alias := range stmt.Names {
		localName := alias.Name
		if alias.AsName != nil {
			localName = alias.AsName.Name
		}
		sym, existed := b.scope.LookUp(localName)
		if !existed {
			sym = b.scope.AddSymbol(b.syms, localName, 0)
			b.rec.SymbolCreated()
		}
		decl := &AliasDeclaration{
			Rng:           syntax.NodeRange(identOrAlias(alias)),
			Path:          resolvedSubPath(info, alias.Name),
			SymbolName:    alias.Name,
			UsesLocalName: alias.AsName != nil,
		}
		if implicit := findImplicitSibling(info, alias.Name); implicit != nil {
			decl.SubmoduleFallback = &AliasDeclaration{Path: implicit.Path, SymbolName: implicit.Name}
		}
		sym.addDeclaration(decl)
		b.current = b.flow.assignment(b.current, identOrAlias(alias), sym.ID(), false)
	}
}

// bindImplicitPackageSubmodule binds a package-init module's own name in
// its own scope before a bare "from . import ..." statement's explicit
// names are bound: `from . import x` inside pkg/__init__.py also makes
// `pkg` itself available in the module it's written in, the same way
// the import machinery sets `pkg` as an attribute of itself. Skipped
// when one of the statement's own explicit names is that same name.
func (b *binder) bindImplicitPackageSubmodule(stmt *syntax.ImportFromStmt) {
	if b.fi.ModuleName == "" {
		return
	}
	for _, a := range stmt.Names {
		if a.Name == b.fi.ModuleName {
			return
		}
	}
	name := &syntax.Ident{NamePos: stmt.Pos, Name: b.fi.ModuleName}
	sym, existed := b.scope.LookUp(name.Name)
	if !existed {
		sym = b.scope.AddSymbol(b.syms, name.Name, 0)
		b.rec.SymbolCreated()
	}
	sym.addDeclaration(&AliasDeclaration{
		Rng:        syntax.NodeRange(stmt),
		Path:       b.fi.FilePath,
		SymbolName: name.Name,
	})
	b.current = b.flow.assignment(b.current, name, sym.ID(), false)
	b.fanExceptTargets()
}

func (b *binder) bindWildcardImport(stmt *syntax.ImportFromStmt) {
	if b.scope.Kind == ScopeClass || b.scope.Kind == ScopeFunction {
		b.report("wildcardImportScope", "wildcard import not allowed at class or function scope", syntax.NodeRange(stmt))
	}

	table, _ := b.resolveImportTable(stmt.Module)
	var names []string
	if table != nil {
		if table.ExplicitAll != nil {
			names = table.ExplicitAll
		} else {
			for name, exportedSym := range table.Names {
				if len(name) > 0 && name[0] == '_' {
					continue
				}
				if exportedSym != nil && exportedSym.Flags.Has(IgnoredForProtocolMatch) {
					continue
				}
				names = append(names, name)
			}
		}
	}

	for _, name := range names {
		sym, existed := b.scope.LookUp(name)
		if !existed {
			sym = b.scope.AddSymbol(b.syms, name, 0)
			b.rec.SymbolCreated()
		}
		sym.addDeclaration(&AliasDeclaration{
			Rng:        syntax.NodeRange(stmt),
			Path:       resolvedSubPath(nil, name),
			SymbolName: name,
		})
		b.scope.recordReference(ReferenceKey(name))
	}
	b.current = b.flow.wildcardImport(b.current, stmt, names)
	b.fanExceptTargets()
}

func (b *binder) resolveImport(dotted string) (string, *ImportInfo) {
	if b.fi.ImportInfoOf == nil {
		return unresolvedImportPath, nil
	}
	info, ok := b.fi.ImportInfoOf(&syntax.Ident{Name: dotted})
	if !ok || !info.IsImportFound {
		b.report("importResolveFailure", "could not resolve import \""+dotted+"\"", syntax.Range{})
		return unresolvedImportPath, info
	}
	b.reportImportTypingGaps(dotted, info)
	if len(info.ResolvedPaths) > 0 {
		return info.ResolvedPaths[len(info.ResolvedPaths)-1], info
	}
	return unresolvedImportPath, info
}

// reportImportTypingGaps flags a resolved import that leaves the checker
// without full type information for it: a third-party module with
// neither a stub nor a py.typed marker, or a stub that has no backing
// source file at all (so "go to definition" and non-stub-only checks
// have nothing to land on).
func (b *binder) reportImportTypingGaps(dotted string, info *ImportInfo) {
	if info.ImportType == ImportThirdParty && !info.IsStubFile && !info.IsPyTypedPresent {
		b.report("missingTypeStub", "import \""+dotted+"\" has no type stub and is not marked py.typed", syntax.Range{})
	}
	if info.IsStubFile && !info.NonStubImportFound {
		b.report("missingModuleSource", "import \""+dotted+"\" resolves to a stub with no corresponding source file", syntax.Range{})
	}
}

func (b *binder) resolveImportTable(dotted string) (*ImportSymbolTable, bool) {
	if b.fi.ImportLookup == nil {
		return nil, false
	}
	return b.fi.ImportLookup(dotted)
}

// unresolvedImportPath is the sentinel path an Alias declaration carries
// when its import could not be resolved, so uses evaluate to an unknown
// type rather than an unbound one.
const unresolvedImportPath = "<unresolved>"

func resolvedSubPath(info *ImportInfo, name string) string {
	if info == nil {
		return unresolvedImportPath
	}
	for _, imp := range info.ImplicitImports {
		if imp.Name == name {
			return imp.Path
		}
	}
	if len(info.ResolvedPaths) > 0 {
		return info.ResolvedPaths[len(info.ResolvedPaths)-1]
	}
	return unresolvedImportPath
}

func findImplicitSibling(info *ImportInfo, name string) *ImplicitImport {
	if info == nil {
		return nil
	}
	for i := range info.ImplicitImports {
		if info.ImplicitImports[i].Name == name {
			return &info.ImplicitImports[i]
		}
	}
	return nil
}

func splitDotted(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// identOrAlias returns alias.AsName if present, else a synthetic ident
// spanning the alias's own NamePos/Name, so callers always have a Node
// to attach a range or flow node to.
func identOrAlias(alias *syntax.Alias) *syntax.Ident {
	if alias.AsName != nil {
		return alias.AsName
	}
	return &syntax.Ident{NamePos: alias.NamePos, Name: alias.Name}
}
