package videocache

import (
	"fmt"
	"strings"
)

// vastWrapperTemplate redirects a player to fetch the actual creative from the
// wrapped URL. The whitespace is part of the documented wire format; tests
// assert on the exact bytes.
const vastWrapperTemplate = `<VAST version="3.0">
    <Ad>
      <Wrapper>
        <AdSystem>prebid.org wrapper</AdSystem>
        <VASTAdTagURI><![CDATA[%s]]></VASTAdTagURI>
        %s
        <Creatives></Creatives>
      </Wrapper>
    </Ad>
  </VAST>`

// resolveVast returns the document to cache for an item: the literal VAST when
// present, otherwise a wrapper pointing at the item's URL.
func resolveVast(value Cacheable) string {
	if value.VastXML != "" {
		return value.VastXML
	}
	return wrapVastURL(value.VastURL, value.VastImpURL)
}

func wrapVastURL(vastURL string, impURLs []string) string {
	var impressions strings.Builder
	for _, impURL := range impURLs {
		impressions.WriteString("<Impression><![CDATA[")
		impressions.WriteString(escapeCDATA(impURL))
		impressions.WriteString("]]></Impression>")
	}
	return fmt.Sprintf(vastWrapperTemplate, escapeCDATA(vastURL), impressions.String())
}

// escapeCDATA splits any "]]>" in the input across two CDATA sections so it
// cannot terminate the enclosing section early.
func escapeCDATA(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}
