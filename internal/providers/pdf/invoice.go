package pdf

import (
	"context"
	"os"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotocfg "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/zap"

	"github.com/treadstone/maxtt-billing/internal/config"
	"github.com/treadstone/maxtt-billing/internal/document"
	"github.com/treadstone/maxtt-billing/internal/metrics"
)

type MarotoProvider struct {
	log       *zap.Logger
	watermark []byte
}

// New loads the watermark once. A missing watermark file is not fatal; the
// PDF just renders without a background.
func New(cfg config.Config, log *zap.Logger) Provider {
	p := &MarotoProvider{log: log.Named("providers.pdf")}
	if cfg.WatermarkPath != "" {
		data, err := os.ReadFile(cfg.WatermarkPath)
		if err != nil {
			log.Warn("watermark unavailable, rendering without it",
				zap.String("path", cfg.WatermarkPath),
				zap.Error(err),
			)
		} else {
			p.watermark = data
		}
	}
	return p
}

// RenderInvoice translates the plan block by block. All sizing decisions were
// made by the planner; this only multiplies them out.
func (p *MarotoProvider) RenderInvoice(_ context.Context, plan document.Plan) ([]byte, error) {
	builder := marotocfg.NewBuilder()
	if p.watermark != nil {
		builder = builder.WithBackgroundImage(p.watermark, extension.Png)
	}
	m := maroto.New(builder.Build())

	bodySize := 9 * plan.Scale
	titleSize := 11 * plan.Scale
	rowMm := 5 * plan.Scale

	for _, block := range plan.Blocks {
		if block.Kind == document.BlockSignatures {
			p.addSignatures(m, plan, block)
			continue
		}

		if block.Title != "" {
			m.AddRow(rowMm+2,
				text.NewCol(12, block.Title, props.Text{Size: titleSize, Style: fontstyle.Bold}),
			)
		}
		for _, lv := range block.Lines {
			m.AddRow(rowMm,
				text.NewCol(4, lv.Label, props.Text{Size: bodySize, Style: fontstyle.Bold}),
				text.NewCol(8, lv.Value, props.Text{Size: bodySize}),
			)
		}
		for i, cells := range block.Table {
			style := fontstyle.Normal
			if i == 0 && block.Kind == document.BlockFitment {
				style = fontstyle.Bold
			}
			if i == len(block.Table)-1 && block.Kind == document.BlockAmounts {
				style = fontstyle.Bold
			}
			m.AddRow(rowMm, tableCols(cells, bodySize, style)...)
		}
		if block.Text != "" {
			m.AddRow(block.HeightMm(plan.Scale),
				text.NewCol(12, block.Text, props.Text{Size: bodySize}),
			)
		}
		m.AddRow(2, line.NewCol(12))
	}

	doc, err := m.Generate()
	if err != nil {
		metrics.Billing().IncPDFRender("error")
		return nil, err
	}
	metrics.Billing().IncPDFRender("ok")
	return doc.GetBytes(), nil
}

func (p *MarotoProvider) addSignatures(m core.Maroto, plan document.Plan, block document.Block) {
	width := 12 / max(1, len(block.Lines))
	cols := make([]core.Col, 0, len(block.Lines))
	for _, lv := range block.Lines {
		cols = append(cols, text.NewCol(width, lv.Label, props.Text{
			Size:  8 * plan.Scale,
			Align: align.Center,
			Top:   plan.SignatureHeightMm - 6,
		}))
	}
	m.AddRow(plan.SignatureHeightMm, cols...)
}

func tableCols(cells []string, size float64, style fontstyle.Type) []core.Col {
	if len(cells) == 2 {
		return []core.Col{
			text.NewCol(8, cells[0], props.Text{Size: size, Style: style}),
			text.NewCol(4, cells[1], props.Text{Size: size, Style: style, Align: align.Right}),
		}
	}
	width := 12 / max(1, len(cells))
	cols := make([]core.Col, 0, len(cells))
	for _, c := range cells {
		cols = append(cols, text.NewCol(width, c, props.Text{Size: size, Style: style}))
	}
	return cols
}
