package pack

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/ernie/pvrfx/internal/blob"
	"github.com/ernie/pvrfx/internal/pvr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waterScript = "[HEADER]\nVERSION 1.0\n[/HEADER]\n" +
	"[TEXTURES]\nFILE tex0 diffuse.pvr\n[/TEXTURES]\n" +
	"[VERTEXSHADER]\nNAME vs0\nFILE a.vsh\n[/VERTEXSHADER]\n" +
	"[FRAGMENTSHADER]\nNAME fs0\nFILE a.fsh\n[/FRAGMENTSHADER]\n" +
	"[EFFECT]\nNAME main\nVERTEXSHADER vs0\nFRAGMENTSHADER fs0\nTEXTURE 0 tex0\n[/EFFECT]\n"

const lostScript = "[TEXTURES]\nFILE tex0 nowhere.pvr\n[/TEXTURES]\n" +
	"[VERTEXSHADER]\nNAME vs0\nFILE a.vsh\n[/VERTEXSHADER]\n" +
	"[FRAGMENTSHADER]\nNAME fs0\nFILE a.fsh\n[/FRAGMENTSHADER]\n" +
	"[EFFECT]\nNAME main\nVERTEXSHADER vs0\nFRAGMENTSHADER fs0\nTEXTURE 0 tex0\n[/EFFECT]\n"

func pvrFile(t *testing.T) []byte {
	t.Helper()
	h := pvr.Header{
		HeaderSize: pvr.HeaderSizeV2,
		Width:      2,
		Height:     2,
		BitCount:   32,
		DataSize:   16,
		Flags:      uint32(pvr.OGLRGBA8888),
		Magic:      pvr.Magic,
	}
	b, err := h.MarshalBinary()
	require.NoError(t, err)
	return append(b, make([]byte, 16)...)
}

// fixture writes pak0.pk3 with three scripts and their assets, plus a later
// bundle that overrides one fragment shader. bad/water.pfx names a
// diffuse.pvr that is not a PVR file.
func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	tex, err := blob.Compress(pvrFile(t), blob.Zstd)
	require.NoError(t, err)

	require.NoError(t, Write(filepath.Join(dir, "pak0.pk3"), map[string][]byte{
		"fx/water.pfx":       []byte(waterScript),
		"fx/lost.pfx":        []byte(lostScript),
		"fx/broken.pfx":      []byte("garbage"),
		"fx/a.vsh":           []byte("void main() { gl_Position = vec4(0.0); }\n"),
		"fx/a.fsh":           []byte("// v1\n"),
		"fx/diffuse.pvr.zst": tex,
		"bad/water.pfx":      []byte(waterScript),
		"bad/a.vsh":          []byte("void main() { gl_Position = vec4(0.0); }\n"),
		"bad/a.fsh":          []byte("// v1\n"),
		"bad/diffuse.pvr":    []byte("this is not a pvr file at all"),
	}, Deflate))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "mods"), 0755))
	require.NoError(t, Write(filepath.Join(dir, "mods", "zz.pk3"), map[string][]byte{
		"fx/a.fsh": []byte("// v2\n"),
	}, Zstd))

	return dir
}

func TestCollectBundles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"pak1.pk3", "pak0.pk3", "aaa.zip", "readme.txt", "sub/pak2.pk3"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, nil, 0644))
	}

	assert.Equal(t, []string{
		filepath.Join(dir, "pak0.pk3"),
		filepath.Join(dir, "pak1.pk3"),
		filepath.Join(dir, "aaa.zip"),
		filepath.Join(dir, "sub", "pak2.pk3"),
	}, CollectBundles(dir))
}

func TestWriteAndRead(t *testing.T) {
	for _, method := range []Method{Deflate, Zstd} {
		t.Run(method.String(), func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "b.pk3")
			require.NoError(t, Write(p, map[string][]byte{"Dir/File.txt": []byte("hello")}, method))

			data, err := ReadFile(p, "dir/file.TXT")
			require.NoError(t, err)
			assert.Equal(t, "hello", string(data))

			_, err = ReadFile(p, "dir/other.txt")
			assert.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, Zstd, m)
	m, err = ParseMethod("")
	require.NoError(t, err)
	assert.Equal(t, Deflate, m)
	_, err = ParseMethod("bzip2")
	assert.Error(t, err)
}

func TestFileIndexOverride(t *testing.T) {
	dir := fixture(t)
	index, err := BuildFileIndex(CollectBundles(dir))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "mods", "zz.pk3"), index["fx/a.fsh"])
	assert.Equal(t, filepath.Join(dir, "pak0.pk3"), index["fx/a.vsh"])

	fsys := NewIndexFS(index)
	data, err := fs.ReadFile(fsys, "FX/a.fsh")
	require.NoError(t, err)
	assert.Equal(t, "// v2\n", string(data))

	f, err := fsys.Open("fx/a.fsh")
	require.NoError(t, err)
	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, "a.fsh", info.Name())
	assert.Equal(t, int64(6), info.Size())
	require.NoError(t, f.Close())

	_, err = fsys.Open("fx/none")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = fsys.Open("../fx/a.fsh")
	assert.ErrorIs(t, err, fs.ErrInvalid)
}

func TestExtract(t *testing.T) {
	dir := fixture(t)
	index, err := BuildFileIndex(CollectBundles(dir))
	require.NoError(t, err)

	files, err := Extract([]string{"FX/A.FSH", "fx/a.vsh", "fx/missing"}, index)
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Equal(t, "// v2\n", string(files["fx/a.fsh"]))
}

func TestResolveTexture(t *testing.T) {
	index := map[string]string{
		"fx/diffuse.pvr.zst": "a",
		"fx/normal.pvr":      "a",
		"shared/sky.pvr.lz4": "a",
		"fx/shared/sky.pvr":  "a",
		"root.pvr":           "a",
	}

	tests := []struct {
		name, script string
		want         string
		ok           bool
	}{
		{"diffuse.pvr", "fx/water.pfx", "fx/diffuse.pvr.zst", true},
		{"Diffuse", "FX/Water.pfx", "fx/diffuse.pvr.zst", true},
		{"normal.pvr", "fx/water.pfx", "fx/normal.pvr", true},
		{"normal.pvr.zst", "fx/water.pfx", "fx/normal.pvr", true},
		{"shared/sky.pvr", "fx/water.pfx", "fx/shared/sky.pvr", true},
		{"shared/sky.pvr", "other/x.pfx", "shared/sky.pvr.lz4", true},
		{"root", "fx/water.pfx", "root.pvr", true},
		{"root", "top.pfx", "root.pvr", true},
		{"nowhere.pvr", "fx/water.pfx", "", false},
	}
	for _, tt := range tests {
		got, ok := ResolveTexture(tt.name, tt.script, index)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestCheckScript(t *testing.T) {
	dir := fixture(t)
	index, err := BuildFileIndex(CollectBundles(dir))
	require.NoError(t, err)

	script, entry, err := CheckScript("FX/Water.pfx", index)
	require.NoError(t, err)

	fs0, ok := script.FragmentShader("fs0")
	require.True(t, ok)
	assert.Equal(t, "// v2\n", fs0.Code)

	assert.Equal(t, []string{"main"}, entry.Effects)
	assert.Equal(t, []string{"fx/a.vsh", "fx/a.fsh"}, entry.Includes)
	assert.Empty(t, entry.Missing)
	assert.Equal(t, &TextureInfo{
		Path:        "fx/diffuse.pvr.zst",
		PixelType:   pvr.OGLRGBA8888.String(),
		Width:       2,
		Height:      2,
		Levels:      1,
		Compression: "zstd",
	}, entry.Textures["tex0"])
}

func TestCheckScriptProblems(t *testing.T) {
	dir := fixture(t)
	index, err := BuildFileIndex(CollectBundles(dir))
	require.NoError(t, err)

	_, entry, err := CheckScript("fx/lost.pfx", index)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere.pvr not found")
	require.NotNil(t, entry)
	assert.Equal(t, []string{"nowhere.pvr"}, entry.Missing)
	assert.Empty(t, entry.Invalid)
	assert.False(t, entry.Complete())

	_, entry, err = CheckScript("bad/water.pfx", index)
	require.Error(t, err)
	assert.ErrorIs(t, err, pvr.ErrNotPVR)
	require.NotNil(t, entry)
	assert.Empty(t, entry.Missing)
	assert.Equal(t, []string{"bad/diffuse.pvr"}, entry.Invalid)
	assert.NotContains(t, entry.Textures, "tex0")
	assert.False(t, entry.Complete())

	_, entry, err = CheckScript("fx/broken.pfx", index)
	require.Error(t, err)
	assert.Nil(t, entry)

	_, _, err = CheckScript("fx/absent.pfx", index)
	assert.ErrorContains(t, err, "not in file index")
}

func TestBuild(t *testing.T) {
	dir := fixture(t)
	out := filepath.Join(t.TempDir(), "out")

	m, err := Build(dir, out, Zstd)
	require.NoError(t, err)

	assert.Contains(t, m.Scripts, "fx/water.pfx")
	assert.Contains(t, m.Scripts, "fx/lost.pfx")
	assert.NotContains(t, m.Scripts, "fx/broken.pfx")
	require.Contains(t, m.Scripts, "bad/water.pfx")
	assert.Equal(t, []string{"bad/diffuse.pvr"}, m.Scripts["bad/water.pfx"].Invalid)
	assert.True(t, m.Scripts["fx/water.pfx"].Complete())

	loaded, err := LoadManifest(filepath.Join(out, "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, m.Bundles, loaded.Bundles)
	assert.Equal(t, m.Scripts["fx/water.pfx"], loaded.Scripts["fx/water.pfx"])
	assert.Equal(t, m.Scripts["bad/water.pfx"].Invalid, loaded.Scripts["bad/water.pfx"].Invalid)

	pak := filepath.Join(out, "fx_water.pk3")
	index, err := BuildFileIndex([]string{pak})
	require.NoError(t, err)
	assert.Len(t, index, 4)
	for _, name := range []string{"fx/water.pfx", "fx/a.vsh", "fx/a.fsh", "fx/diffuse.pvr.zst"} {
		assert.Contains(t, index, name)
	}
	data, err := ReadFile(pak, "fx/a.fsh")
	require.NoError(t, err)
	assert.Equal(t, "// v2\n", string(data))

	assert.NoFileExists(t, filepath.Join(out, "fx_lost.pk3"))
	assert.NoFileExists(t, filepath.Join(out, "fx_broken.pk3"))
	assert.NoFileExists(t, filepath.Join(out, "bad_water.pk3"))
}

func TestBuildEffectPakUnknownScript(t *testing.T) {
	m := &Manifest{Scripts: map[string]*ScriptEntry{}}
	err := BuildEffectPak("fx/none.pfx", m, filepath.Join(t.TempDir(), "x.pk3"), Deflate)
	assert.ErrorContains(t, err, "not found in manifest")
}

func TestPakName(t *testing.T) {
	assert.Equal(t, "fx_water.pk3", pakName("fx/water.pfx"))
	assert.Equal(t, "fx_water.pk3", pakName("fx/water.pfx.zst"))
	assert.Equal(t, "top.pk3", pakName("top.pfx"))
}
