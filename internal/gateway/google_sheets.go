package gateway

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/k-negishi/form-submission-reviewer/internal/domain"
)

// SheetsConfig 参照するスプレッドシートとシート名
type SheetsConfig struct {
	SpreadsheetID        string
	SubmissionSheet      string
	AuthorizedUsersSheet string
	Timezone             *time.Location
}

// GoogleSheetsRepository Google Sheets APIを使用したSubmissionRepository/AuthorizedUserRepositoryの実装
type GoogleSheetsRepository struct {
	service *sheets.Service
	cfg     SheetsConfig
}

// NewGoogleSheetsRepository サービスアカウント認証でSheetsリポジトリを作成
func NewGoogleSheetsRepository(ctx context.Context, credentialsJSON []byte, cfg SheetsConfig) (*GoogleSheetsRepository, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("google認証情報の読み込みに失敗しました: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("google Sheets APIサービスの作成に失敗しました: %w", err)
	}

	return NewGoogleSheetsRepositoryWithService(service, cfg), nil
}

// NewGoogleSheetsRepositoryWithService 作成済みのサービスからリポジトリを作成
func NewGoogleSheetsRepositoryWithService(service *sheets.Service, cfg SheetsConfig) *GoogleSheetsRepository {
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	return &GoogleSheetsRepository{
		service: service,
		cfg:     cfg,
	}
}

// ListSubmissions フォーム回答シートの全行を読み込む
func (r *GoogleSheetsRepository) ListSubmissions(ctx context.Context) ([]domain.Submission, error) {
	values, err := r.readValues(ctx, sheetRange(r.cfg.SubmissionSheet, ""))
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return []domain.Submission{}, nil
	}

	header := values[0]
	submissions := make([]domain.Submission, 0, len(values)-1)
	for i, row := range values[1:] {
		if isBlank(row) {
			continue
		}
		// ヘッダーが1行目なので、データの先頭は2行目
		submissions = append(submissions, domain.ParseSubmission(header, row, i+2, r.cfg.Timezone))
	}
	return submissions, nil
}

// GetSubmission 指定行とヘッダーだけを読み直す
func (r *GoogleSheetsRepository) GetSubmission(ctx context.Context, row int) (domain.Submission, error) {
	if row < 2 {
		return domain.Submission{}, domain.ErrNotFound
	}

	resp, err := r.service.Spreadsheets.Values.BatchGet(r.cfg.SpreadsheetID).
		Ranges(
			sheetRange(r.cfg.SubmissionSheet, "1:1"),
			sheetRange(r.cfg.SubmissionSheet, fmt.Sprintf("%d:%d", row, row)),
		).
		Context(ctx).
		Do()
	if err != nil {
		return domain.Submission{}, fmt.Errorf("%w: %d行目の読み込みに失敗しました: %v", domain.ErrStoreUnavailable, row, err)
	}
	if len(resp.ValueRanges) != 2 {
		return domain.Submission{}, fmt.Errorf("%w: 想定外のレスポンスです", domain.ErrStoreUnavailable)
	}

	header := firstRow(resp.ValueRanges[0])
	values := firstRow(resp.ValueRanges[1])
	if len(header) == 0 || isBlank(values) {
		return domain.Submission{}, domain.ErrNotFound
	}
	return domain.ParseSubmission(header, values, row, r.cfg.Timezone), nil
}

// UpdateSubmission 指定行の列を書き換える。
// Status / Last Updated By 列がなければヘッダーに追加してから書き込む
func (r *GoogleSheetsRepository) UpdateSubmission(ctx context.Context, row int, columns map[string]string) error {
	if row < 2 {
		return domain.ErrNotFound
	}

	headerValues, err := r.readValues(ctx, sheetRange(r.cfg.SubmissionSheet, "1:1"))
	if err != nil {
		return err
	}
	var header []string
	if len(headerValues) > 0 {
		header = headerValues[0]
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	var data []*sheets.ValueRange
	for _, name := range names {
		i, ok := index[name]
		if !ok {
			if name != domain.ColumnStatus && name != domain.ColumnLastUpdatedBy {
				// フォームにない列は書き込まない
				continue
			}
			i = len(header)
			header = append(header, name)
			index[name] = i
			data = append(data, cellValue(r.cfg.SubmissionSheet, i, 1, name))
		}
		data = append(data, cellValue(r.cfg.SubmissionSheet, i, row, columns[name]))
	}
	if len(data) == 0 {
		return nil
	}

	_, err = r.service.Spreadsheets.Values.BatchUpdate(r.cfg.SpreadsheetID, &sheets.BatchUpdateValuesRequest{
		// 回答内容が数式として解釈されないようRAWで書き込む
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: %d行目の更新に失敗しました: %v", domain.ErrStoreUnavailable, row, err)
	}
	return nil
}

// ListAuthorizedUsers 許可リストシート（Name, Email列）を読み込む
func (r *GoogleSheetsRepository) ListAuthorizedUsers(ctx context.Context) ([]domain.AuthorizedUser, error) {
	values, err := r.readValues(ctx, sheetRange(r.cfg.AuthorizedUsersSheet, ""))
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: シート %s にヘッダーがありません", domain.ErrStoreUnavailable, r.cfg.AuthorizedUsersSheet)
	}

	nameCol, emailCol := -1, -1
	for i, h := range values[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name":
			nameCol = i
		case "email":
			emailCol = i
		}
	}
	if emailCol < 0 {
		return nil, fmt.Errorf("%w: シート %s にEmail列がありません", domain.ErrStoreUnavailable, r.cfg.AuthorizedUsersSheet)
	}

	users := make([]domain.AuthorizedUser, 0, len(values)-1)
	for _, row := range values[1:] {
		email := cell(row, emailCol)
		if email == "" {
			continue
		}
		users = append(users, domain.AuthorizedUser{Name: cell(row, nameCol), Email: email})
	}
	return users, nil
}

// SpreadsheetURL 画面からシートを開くためのURL
func (r *GoogleSheetsRepository) SpreadsheetURL() string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit", r.cfg.SpreadsheetID)
}

func (r *GoogleSheetsRepository) readValues(ctx context.Context, rng string) ([][]string, error) {
	resp, err := r.service.Spreadsheets.Values.Get(r.cfg.SpreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %s の読み込みに失敗しました: %v", domain.ErrStoreUnavailable, rng, err)
	}
	return toStrings(resp.Values), nil
}

func sheetRange(sheet, a1 string) string {
	quoted := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	if a1 == "" {
		return quoted
	}
	return quoted + "!" + a1
}

func cellValue(sheet string, col, row int, value string) *sheets.ValueRange {
	return &sheets.ValueRange{
		Range:  sheetRange(sheet, fmt.Sprintf("%s%d", columnName(col), row)),
		Values: [][]interface{}{{value}},
	}
}

// columnName 0始まりの列番号をA1形式の列名に変換する（0→A, 26→AA）
func columnName(index int) string {
	name := ""
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		name = string(rune('A'+(n-1)%26)) + name
	}
	return name
}

func firstRow(vr *sheets.ValueRange) []string {
	if vr == nil || len(vr.Values) == 0 {
		return nil
	}
	return toStrings(vr.Values[:1])[0]
}

func toStrings(values [][]interface{}) [][]string {
	result := make([][]string, len(values))
	for i, row := range values {
		result[i] = make([]string, len(row))
		for j, v := range row {
			if v != nil {
				result[i][j] = fmt.Sprint(v)
			}
		}
	}
	return result
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
