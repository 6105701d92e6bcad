package browser

import (
	"context"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/lokutor-ai/meetscribe/pkg/caption"
)

// captionsRegionXPath matches the container the live-captions panel renders
// into; each child div is one speaker's current caption block.
const captionsRegionXPath = `//div[@jsname][.//div[@jsname][text()]][contains(@class, '')][1]`

// CaptionSource reads the live-captions DOM region and satisfies
// caption.Source without that package importing chromedp directly.
type CaptionSource struct {
	driver *Driver
}

func NewCaptionSource(d *Driver) *CaptionSource {
	return &CaptionSource{driver: d}
}

var _ caption.Source = (*CaptionSource)(nil)

type rawBlock struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// readBlocksScript pulls speaker/text pairs out of the captions region in a
// single round-trip rather than one DOM query per node.
const readBlocksScript = `
(() => {
  const region = document.querySelector('[jsname]');
  if (!region) return [];
  const out = [];
  document.querySelectorAll('div[jsname] > div').forEach((row) => {
    const speakerEl = row.querySelector('div:first-child');
    const textEl = row.querySelector('div:last-child');
    if (speakerEl && textEl && speakerEl !== textEl) {
      out.push({speaker: speakerEl.textContent.trim(), text: textEl.textContent.trim()});
    }
  });
  return out;
})()
`

func (c *CaptionSource) ReadBlocks(ctx context.Context) ([]caption.CaptionBlock, bool, error) {
	var nodes []*cdp.Node
	if err := chromedp.Run(c.driver.ctx, chromedp.Nodes(captionsRegionXPath, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
		return nil, false, err
	}
	if len(nodes) == 0 {
		return nil, false, nil
	}

	var raw []rawBlock
	if err := chromedp.Run(c.driver.ctx, chromedp.Evaluate(readBlocksScript, &raw)); err != nil {
		return nil, true, err
	}

	blocks := make([]caption.CaptionBlock, 0, len(raw))
	for _, b := range raw {
		if b.Speaker == "" || b.Text == "" {
			continue
		}
		blocks = append(blocks, caption.CaptionBlock{Speaker: b.Speaker, Text: b.Text})
	}
	return blocks, true, nil
}
