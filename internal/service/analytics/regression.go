package analytics

import (
	"errors"
	"math"
)

// errSingular возвращается, когда система нормальных уравнений вырождена
var errSingular = errors.New("normal equations are singular")

// pivotTolerance — относительный порог, ниже которого ведущий элемент считается нулём
const pivotTolerance = 1e-9

// Model — коэффициенты взвешенной регрессии percentage ≈ b0 + b1*attempt_index + b2*difficulty_level
type Model struct {
	Intercept      float64 `json:"intercept"`
	Slope          float64 `json:"slope"`
	DifficultyCoef float64 `json:"difficulty_coef"`

	// DifficultyFitted ложно, если столбец сложности исключён из-за вырожденности системы
	DifficultyFitted bool `json:"difficulty_fitted"`
}

// At вычисляет значение модели в точке (x, level)
func (m Model) At(x float64, level int) float64 {
	return m.Intercept + m.Slope*x + m.DifficultyCoef*float64(level)
}

// recencyWeights возвращает веса, линейно растущие от 0.6 (самая старая точка) до 1.0 (последняя)
func recencyWeights(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.6 + 0.4*float64(i)/float64(n-1)
	}
	return w
}

// FitModel решает взвешенную задачу наименьших квадратов по истории.
// Если матрица XᵀWX вырождена (постоянная сложность или две точки), столбец сложности
// исключается и решается задача по [1, x] с b2 = 0.
func FitModel(points []HistoryPoint) (Model, error) {
	n := len(points)
	if n < MinAttempts {
		return Model{}, ErrInsufficientHistory
	}

	w := recencyWeights(n)
	rows := make([][]float64, n)
	y := make([]float64, n)
	for i, p := range points {
		rows[i] = []float64{1, float64(p.AttemptIndex), float64(p.Difficulty.Level())}
		y[i] = p.Percentage
	}

	if b, err := solveWeighted(rows, y, w, 3); err == nil {
		return Model{Intercept: b[0], Slope: b[1], DifficultyCoef: b[2], DifficultyFitted: true}, nil
	}

	b, err := solveWeighted(rows, y, w, 2)
	if err != nil {
		// Индексы попыток различны при n >= 2, так что сюда попадать не должны
		return Model{Intercept: weightedMean(y, w)}, nil
	}
	return Model{Intercept: b[0], Slope: b[1]}, nil
}

// solveWeighted строит (XᵀWX) b = XᵀWy по первым k столбцам и решает её
func solveWeighted(rows [][]float64, y, w []float64, k int) ([]float64, error) {
	a := make([][]float64, k)
	for i := range a {
		a[i] = make([]float64, k+1)
	}
	for r, row := range rows {
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				a[i][j] += w[r] * row[i] * row[j]
			}
			a[i][k] += w[r] * row[i] * y[r]
		}
	}
	return gaussSolve(a, k)
}

// gaussSolve решает расширенную матрицу k×(k+1) методом Гаусса с выбором ведущего элемента
func gaussSolve(a [][]float64, k int) ([]float64, error) {
	scale := 0.0
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			scale = math.Max(scale, math.Abs(a[i][j]))
		}
	}
	if scale == 0 {
		return nil, errSingular
	}

	for col := 0; col < k; col++ {
		pivot := col
		for r := col + 1; r < k; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) <= pivotTolerance*scale {
			return nil, errSingular
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := col + 1; r < k; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c <= k; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	b := make([]float64, k)
	for i := k - 1; i >= 0; i-- {
		sum := a[i][k]
		for j := i + 1; j < k; j++ {
			sum -= a[i][j] * b[j]
		}
		b[i] = sum / a[i][i]
	}
	return b, nil
}

func weightedMean(y, w []float64) float64 {
	var sum, wSum float64
	for i := range y {
		sum += y[i] * w[i]
		wSum += w[i]
	}
	if wSum == 0 {
		return 0
	}
	return sum / wSum
}

// FitMetrics — ошибки модели на самой истории
type FitMetrics struct {
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
}

// EvaluateFit считает MSE/RMSE/MAE модели по точкам истории (округление до 4 знаков)
func EvaluateFit(points []HistoryPoint, m Model) FitMetrics {
	if len(points) == 0 {
		return FitMetrics{}
	}
	var sq, abs float64
	for _, p := range points {
		diff := p.Percentage - m.At(float64(p.AttemptIndex), p.Difficulty.Level())
		sq += diff * diff
		abs += math.Abs(diff)
	}
	n := float64(len(points))
	mse := sq / n
	return FitMetrics{
		MSE:  roundTo(mse, 4),
		RMSE: roundTo(math.Sqrt(mse), 4),
		MAE:  roundTo(abs/n, 4),
	}
}
