package forecast

// ComputeResiduals runs the one-step recursion over the differenced series,
// starting at order.MaxLag(). Only the non-seasonal AR and MA terms contribute.
func ComputeResiduals(differenced []float64, order SarimaOrder, c Coefficients) []float64 {
	start := order.MaxLag()
	if len(differenced) <= start {
		return []float64{}
	}

	residuals := make([]float64, 0, len(differenced)-start)
	for i := start; i < len(differenced); i++ {
		prediction := c.Intercept

		for j := 0; j < len(c.AR) && j < i; j++ {
			prediction += c.AR[j] * differenced[i-j-1]
		}
		for j := 0; j < len(c.MA) && j < len(residuals); j++ {
			prediction += c.MA[j] * residuals[len(residuals)-j-1]
		}

		residuals = append(residuals, differenced[i]-prediction)
	}
	return residuals
}
