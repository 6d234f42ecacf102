package codec

import (
	"strings"
	"testing"
	"time"

	"github.com/nicwaller/mcastlog"
)

func TestXmlCodec_Encode(t *testing.T) {
	evt := mcastlog.NewLogEvent("info", "app", "hello")
	evt.Field(mcastlog.PathTimestamp...).SetString(time.UnixMilli(1700000000123).UTC().Format(time.RFC3339Nano))
	evt.Field(mcastlog.PathThread...).SetString("main")
	evt.SetLabel("hostname", "web-1")

	actual, err := XML().Encode(evt)
	if err != nil {
		t.Error(err)
	}
	expected := `<log4j:event logger="app" timestamp="1700000000123" level="INFO" thread="main">` + "\r\n" +
		`<log4j:message><![CDATA[hello]]></log4j:message>` + "\r\n" +
		`<log4j:properties>` + "\r\n" +
		`<log4j:data name="hostname" value="web-1"/>` + "\r\n" +
		`</log4j:properties>` + "\r\n" +
		`</log4j:event>` + "\r\n\r\n"
	if string(actual) != expected {
		t.Errorf(`Expected "%s" but got "%s"`, expected, actual)
	}
}

func TestXmlCodec_EncodeEscaping(t *testing.T) {
	evt := mcastlog.NewLogEvent("info", `a"<b>`, "x]]>y")
	actual, err := XML().Encode(evt)
	if err != nil {
		t.Error(err)
	}
	if !strings.Contains(string(actual), `logger="a&#34;&lt;b&gt;"`) {
		t.Errorf(`logger attribute not escaped in "%s"`, actual)
	}
	if !strings.Contains(string(actual), `<![CDATA[x]]>]]&gt;<![CDATA[y]]>`) {
		t.Errorf(`CDATA terminator not split in "%s"`, actual)
	}

	decoded, err := XML().Decode(actual)
	if err != nil {
		t.Error(err)
	}
	if v := decoded.Field(mcastlog.PathMessage...).GetString(); v != "x]]>y" {
		t.Errorf(`Expected "x]]>y" but got "%s"`, v)
	}
	if v := decoded.Field(mcastlog.PathLogger...).GetString(); v != `a"<b>` {
		t.Errorf(`Expected logger to survive but got "%s"`, v)
	}
}

func TestXmlCodec_LocationInfo(t *testing.T) {
	evt := mcastlog.NewLogEvent("debug", "app", "where am I")
	evt.CaptureLocation(0)

	dat, err := XML().Encode(evt)
	if err != nil {
		t.Error(err)
	}
	if !strings.Contains(string(dat), `method="TestXmlCodec_LocationInfo"`) {
		t.Errorf(`Expected location info in "%s"`, dat)
	}

	decoded, err := XML().Decode(dat)
	if err != nil {
		t.Error(err)
	}
	if !strings.HasSuffix(decoded.Field(mcastlog.PathOriginFile...).GetString(), "xml_test.go") {
		t.Errorf("unexpected file %s", decoded.Field(mcastlog.PathOriginFile...).GetString())
	}
	if decoded.Field(mcastlog.PathOriginLine...).GetInt() == 0 {
		t.Error("expected a line number")
	}
	if fn := decoded.Field(mcastlog.PathOriginFunction...).GetString(); !strings.HasSuffix(fn, ".TestXmlCodec_LocationInfo") {
		t.Errorf("unexpected function %s", fn)
	}
}

func TestXmlCodec_Decode(t *testing.T) {
	evt, err := XML().Decode([]byte(`<log4j:event logger="org.example.App" timestamp="1700000000123" level="WARN" thread="worker-1">
<log4j:message><![CDATA[disk almost full]]></log4j:message>
<log4j:throwable><![CDATA[java.io.IOException: nope
	at org.example.App.main(App.java:10)]]></log4j:throwable>
<log4j:properties>
<log4j:data name="application" value="billing"/>
<log4j:data name="hostname" value="web-1"/>
</log4j:properties>
</log4j:event>`))
	if err != nil {
		t.Error(err)
	}

	checks := map[string]string{
		"message":             "disk almost full",
		"log.level":           "WARN",
		"log.logger":          "org.example.App",
		"process.thread.name": "worker-1",
		"@timestamp":          "2023-11-14T22:13:20.123Z",
		"labels.hostname":     "web-1",
		"labels.application":  "billing",
		"error.stack_trace":   "java.io.IOException: nope\n\tat org.example.App.main(App.java:10)",
	}
	for path, expected := range checks {
		if actual := evt.Field(strings.Split(path, ".")...).GetString(); actual != expected {
			t.Errorf(`%s: Expected "%s" but got "%s"`, path, expected, actual)
		}
	}
}

func TestXmlCodec_DecodeGarbage(t *testing.T) {
	if _, err := XML().Decode([]byte(`not xml at all`)); err == nil {
		t.Error("expected an error")
	}
}

func TestSplitFunction(t *testing.T) {
	cases := map[string][2]string{
		"github.com/a/b.(*T).Method": {"github.com/a/b.(*T)", "Method"},
		"main.main":                  {"main", "main"},
		"github.com/a/b.func1":       {"github.com/a/b", "func1"},
		"noDots":                     {"noDots", ""},
	}
	for in, expected := range cases {
		class, method := splitFunction(in)
		if class != expected[0] || method != expected[1] {
			t.Errorf(`%s: Expected "%s" "%s" but got "%s" "%s"`, in, expected[0], expected[1], class, method)
		}
	}
}
