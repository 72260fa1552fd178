package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// ----------------------------------------------------------------------
// 定数定義
// ----------------------------------------------------------------------

// excludedSelectors は、プレーンテキストに含めない要素です。
const excludedSelectors = "script, style"

// Document は、取得したHTMLを解析した結果です。
// Tree はサイト固有の抽出に、PlainText は締切の抽出に使われます。
type Document struct {
	Tree      *goquery.Document
	plainText string
}

// PlainText は、script/style を除いたテキスト投影を返します。
func (d *Document) PlainText() string {
	if d == nil {
		return ""
	}
	return d.plainText
}

// Title は <title> のテキストを返します。
func (d *Document) Title() string {
	if d == nil || d.Tree == nil {
		return ""
	}
	return strings.TrimSpace(d.Tree.Find("title").First().Text())
}

// ----------------------------------------------------------------------
// メイン関数
// ----------------------------------------------------------------------

// Parse は、レスポンスボディを文字コード判定のうえ解析し、Document を返します。
// 空のボディはエラーではなく、空のテキスト投影を持つ Document になります。
func Parse(body []byte) (*Document, error) {
	return ParseWithContentType(body, "")
}

// ParseWithContentType は Content-Type ヘッダーを文字コード判定のヒントとして使います。
func ParseWithContentType(body []byte, contentType string) (*Document, error) {
	_, name, _ := charset.DetermineEncoding(body, contentType)

	reader, err := charset.NewReaderLabel(name, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("文字コード (%s) の変換に失敗しました: %w", name, err)
	}

	root, err := html.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("HTML解析に失敗しました: %w", err)
	}

	tree := goquery.NewDocumentFromNode(root)
	tree.Find(excludedSelectors).Remove()

	return &Document{
		Tree:      tree,
		plainText: tree.Text(),
	}, nil
}
