package codec

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nicwaller/mcastlog"
)

// XML renders events the way log4j's XMLLayout does, so that existing
// receivers (Chainsaw, MulticastReceiver) understand the datagrams.
// Example:
//
//	<log4j:event logger="app" timestamp="1700000000000" level="INFO" thread="main">
//	<log4j:message><![CDATA[hello]]></log4j:message>
//	<log4j:properties>
//	<log4j:data name="hostname" value="web-1"/>
//	</log4j:properties>
//	</log4j:event>
func XML() mcastlog.CodecPlugin {
	return &xmlCodec{}
}

type xmlCodec struct{}

const (
	lineSep          = "\r\n"
	cdataStart       = "<![CDATA["
	cdataEnd         = "]]>"
	cdataPseudoEnd   = "]]&gt;"
	cdataEmbeddedEnd = cdataEnd + cdataPseudoEnd + cdataStart
)

func (p *xmlCodec) Encode(evt mcastlog.Event) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(`<log4j:event logger="`)
	writeAttr(&buf, evt.Field(mcastlog.PathLogger...).GetString())
	buf.WriteString(`" timestamp="`)
	ts, ok := evt.Timestamp()
	if !ok {
		ts = time.Now()
	}
	buf.WriteString(strconv.FormatInt(ts.UnixMilli(), 10))
	buf.WriteString(`" level="`)
	writeAttr(&buf, mcastlog.CoalesceStr(evt.Field(mcastlog.PathLevel...).GetString(), mcastlog.LevelInfo))
	buf.WriteString(`" thread="`)
	writeAttr(&buf, evt.Field(mcastlog.PathThread...).GetString())
	buf.WriteString(`">` + lineSep)

	buf.WriteString("<log4j:message>")
	writeCDATA(&buf, evt.Field(mcastlog.PathMessage...).GetString())
	buf.WriteString("</log4j:message>" + lineSep)

	if trace := evt.Field(mcastlog.PathStackTrace...).GetString(); trace != "" {
		buf.WriteString("<log4j:throwable>")
		writeCDATA(&buf, trace)
		buf.WriteString("</log4j:throwable>" + lineSep)
	}

	if evt.HasLocation() {
		class, method := splitFunction(evt.Field(mcastlog.PathOriginFunction...).GetString())
		buf.WriteString(`<log4j:locationInfo class="`)
		writeAttr(&buf, class)
		buf.WriteString(`" method="`)
		writeAttr(&buf, method)
		buf.WriteString(`" file="`)
		writeAttr(&buf, evt.Field(mcastlog.PathOriginFile...).GetString())
		buf.WriteString(`" line="`)
		buf.WriteString(strconv.Itoa(evt.Field(mcastlog.PathOriginLine...).GetInt()))
		buf.WriteString(`"/>` + lineSep)
	}

	if keys, labels := evt.Labels(); len(keys) > 0 {
		buf.WriteString("<log4j:properties>" + lineSep)
		for _, k := range keys {
			buf.WriteString(`<log4j:data name="`)
			writeAttr(&buf, k)
			buf.WriteString(`" value="`)
			writeAttr(&buf, labels[k])
			buf.WriteString(`"/>` + lineSep)
		}
		buf.WriteString("</log4j:properties>" + lineSep)
	}

	buf.WriteString("</log4j:event>" + lineSep + lineSep)
	return buf.Bytes(), nil
}

func (p *xmlCodec) Decode(dat []byte) (mcastlog.Event, error) {
	var raw xmlEvent
	if err := xml.Unmarshal(dat, &raw); err != nil {
		return mcastlog.NewEvent(), fmt.Errorf("failed to decode log4j xml event: %w", err)
	}

	evt := mcastlog.NewEvent()
	evt.Field(mcastlog.PathMessage...).SetString(raw.Message)
	evt.Field(mcastlog.PathLevel...).SetString(mcastlog.CoalesceStr(raw.Level, mcastlog.LevelInfo))
	if raw.Logger != "" {
		evt.Field(mcastlog.PathLogger...).SetString(raw.Logger)
	}
	if raw.Thread != "" {
		evt.Field(mcastlog.PathThread...).SetString(raw.Thread)
	}
	if raw.Timestamp != 0 {
		ts := time.UnixMilli(raw.Timestamp).UTC()
		evt.Field(mcastlog.PathTimestamp...).SetString(ts.Format(time.RFC3339Nano))
	}
	if trace := strings.TrimSpace(raw.Throwable); trace != "" {
		evt.Field(mcastlog.PathStackTrace...).SetString(trace)
	}
	if loc := raw.Location; loc != nil {
		function := loc.Class
		if loc.Method != "" {
			function = function + "." + loc.Method
		}
		evt.Field(mcastlog.PathOriginFunction...).SetString(function)
		evt.Field(mcastlog.PathOriginFile...).SetString(loc.File)
		line, _ := strconv.Atoi(loc.Line)
		evt.Field(mcastlog.PathOriginLine...).SetInt(line)
	}
	for _, data := range raw.Properties {
		if data.Name != "" {
			evt.SetLabel(data.Name, data.Value)
		}
	}
	return evt, nil
}

// the log4j: prefix is never bound to a namespace, so match on local names only
type xmlEvent struct {
	XMLName    xml.Name       `xml:"event"`
	Logger     string         `xml:"logger,attr"`
	Timestamp  int64          `xml:"timestamp,attr"`
	Level      string         `xml:"level,attr"`
	Thread     string         `xml:"thread,attr"`
	Message    string         `xml:"message"`
	Throwable  string         `xml:"throwable"`
	Location   *xmlLocation   `xml:"locationInfo"`
	Properties []xmlEventData `xml:"properties>data"`
}

type xmlLocation struct {
	Class  string `xml:"class,attr"`
	Method string `xml:"method,attr"`
	File   string `xml:"file,attr"`
	Line   string `xml:"line,attr"`
}

type xmlEventData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func writeAttr(buf *bytes.Buffer, s string) {
	// EscapeText only fails when the writer fails, and bytes.Buffer never does
	_ = xml.EscapeText(buf, []byte(s))
}

// a "]]>" inside the text would end the section early, so it is split across two sections
func writeCDATA(buf *bytes.Buffer, s string) {
	buf.WriteString(cdataStart)
	buf.WriteString(strings.ReplaceAll(s, cdataEnd, cdataEmbeddedEnd))
	buf.WriteString(cdataEnd)
}

// splitFunction turns "example.com/pkg.(*Type).Method" into
// class "example.com/pkg.(*Type)" and method "Method".
func splitFunction(function string) (string, string) {
	// only look for the separator after the last path element
	slash := strings.LastIndex(function, "/")
	dot := strings.LastIndex(function[slash+1:], ".")
	if dot < 0 {
		return function, ""
	}
	dot += slash + 1
	return function[:dot], function[dot+1:]
}
